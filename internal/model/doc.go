// Package model defines the core data structures used throughout
// vinyl-stack.
//
// # Record
//
// Record is one vinyl record from the collection document:
//
//	rec := coll.At(0)
//	fmt.Println(rec.String()) // "Pink Floyd - The Dark Side of the Moon"
//	for i, t := range rec.Tracks {
//	    fmt.Printf("%d. %s %s\n", i+1, t.Title, t.Duration)
//	}
//
// # Collection
//
// Collection keeps the records in document order and indexes them by ID:
//
//	coll := model.NewCollection(records)
//	rec, idx, ok := coll.ByID("dsotm")
//
// # Cover Paths
//
// CoverPathConfig controls where exported cover art is written:
//
//	cfg := &model.CoverPathConfig{
//	    Directory:      "/covers",
//	    FileNameFormat: "{artist} - {title}",
//	}
//	path := rec.CoverPath(cfg, ".jpg")
//
// Available placeholders: {id}, {artist}, {title}, {year}, {label}
package model
