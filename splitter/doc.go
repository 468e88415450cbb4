// Package splitter turns raw ingested text into leaf-sized chunks for the
// tree builder (spec 4.1). Three modes share the same TextSplitter
// interface: a token-bounded sentence splitter (the default), a markdown
// splitter that respects heading structure and keeps fenced code blocks
// atomic, and an embedding-semantic splitter that breaks at points of
// low similarity between adjacent sentences.
package splitter
