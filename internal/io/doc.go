// Package ioutils provides file system and image helpers for cover export.
//
// # File Operations
//
// All file functions take an afero.Fs so they work the same on disk and
// in memory:
//
//	err := ioutils.WriteFile(fs, "/covers/Miles Davis - Kind of Blue.jpg", data)
//	err := ioutils.EnsureDir(fs, "/covers")
//
// # Image Processing
//
// The ImageService shrinks cover art and converts it to JPEG:
//
//	svc := ioutils.NewImageService()
//	out, _ := svc.Process(ctx, pngData, true, 1000)
package ioutils
