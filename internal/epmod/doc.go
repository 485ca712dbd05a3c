// Package epmod models the EncounterPlus module document: the module or
// pack manifest element tree, the compendium tree, and the zip packaging
// that turns a staged workspace into a .module or .pack file.
package epmod
