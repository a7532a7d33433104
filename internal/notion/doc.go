// Package notion fetches page content from the Notion REST API.
//
// The client resolves a page reference (URL or raw ID) to a page title plus a
// fully expanded block tree: children pages are listed with pagination and
// blocks flagged has_children are fetched recursively. API failures map onto
// the services error taxonomy so the pipeline can distinguish a missing or
// unshared page (fatal) from transient transport trouble.
package notion
