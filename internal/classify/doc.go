// Package classify turns drained simulator output into conductor-action
// categories.
//
// Classification is an exact, case-sensitive lookup of the normalized text in
// a phrase [Table]. There is no substring, regex or locale-aware matching:
// a batch that holds two lines normalizes to one concatenated key and is
// Unrecognized unless that exact key is in the table.
//
// # Main Types
//
//   - [Category]: closed set of event kinds, with a snake_case text form
//   - [Table]: immutable phrase to category mapping, loadable from YAML
//   - [TableClassifier]: [Classifier] over a Table that can be swapped at runtime
//   - [Watcher]: reloads a phrase file into a TableClassifier when it changes
//
// # Thread Safety
//
// Tables are immutable. TableClassifier swaps tables atomically, so Classify
// never blocks on a reload.
//
// # Basic Usage
//
//	c := classify.NewClassifier(nil) // default table
//	key := classify.Normalize("車掌スイッチ: 閉\n", "\n")
//	c.Classify(key) // DoorClose
package classify
