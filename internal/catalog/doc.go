// Package catalog lists the auxiliary clips left by the download
// collaborator and parses their identifiers.
//
// Identifiers follow the {ordinal}_{slug}.{ext} convention: a zero-padded
// ordinal starting at 1, then the window label with every character that is
// not a letter or digit replaced by an underscore. When the collaborator also
// wrote download_manifest.json, each entry's original label is attached to
// the asset as a matching hint.
package catalog
