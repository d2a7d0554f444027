// Package storage manages the on-disk image tree of the scraper.
//
// Images are grouped into one folder per author under the images directory.
// Folder names are the author transliterated to Latin script ("Иванов"
// becomes "ivanov"); objects without an author go to the unsorted folder.
//
//	manager, err := storage.NewManager("images", storage.DefaultUnsortedFolder)
//	folder, err := manager.EnsureFolder(record.Author)
//	_, err = manager.SaveImage(body, folder, storage.ImageFileName(id))
//
// Creating a folder is a separate, idempotent step; SaveImage refuses to
// write into a folder that was never ensured. Writes go through a temporary
// file and an atomic rename.
package storage
