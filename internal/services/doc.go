// Package services defines the error taxonomy shared by the pipeline stages
// and the context helpers that thread run metadata through them.
//
// Stages tag failures with the sentinel errors here so the pipeline controller
// can decide between recovering locally (skip a concept, keep the run alive)
// and aborting before any artifact is placed. Collaborator clients live in
// subpackages (llm).
package services
