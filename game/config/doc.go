// Package config manages level packs for GridRunner.
//
// A level pack is a named list of level lines for one difficulty. Packs live
// as files in a levels directory:
//
//	levels/
//	  weekend.yaml     name, difficulty, levels
//	  tricky.jsonc     same fields, JSON with comments and trailing commas
//
// The three built-in packs (easy, medium, hard) are always available and a
// file with the same base name shadows them. Manager caches decoded packs and
// can merge everything into per-difficulty catalogs for the engine:
//
//	m, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//	catalog := engine.NewCatalog(m.Catalog(), nil)
//
// Every pack is validated line by line before it is cached or saved.
package config
