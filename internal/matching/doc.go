// Package matching assigns exactly one catalog asset to every window label.
//
// The assignment itself is produced by a Strategy. SlugMatcher scores label
// tokens against the slug embedded in each asset identifier and falls back to
// ordinal order when slugs are not informative; PositionalMatcher uses
// ordinal order only. Whatever strategy is configured, Match verifies that
// its output is a bijection between window labels and distinct catalog
// identifiers before the pipeline continues, so an alternative strategy can
// be substituted without touching any later stage.
package matching
