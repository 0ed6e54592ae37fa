// Package importer materializes one provider title into the catalog store.
//
// An import fetches the normalized title, stores artwork, upserts the Title
// row, then links countries, genres and actors and, for series, walks every
// season and its episodes. Failures below the Title row are isolated and
// counted in the Result rather than returned. Imports are serialized within a
// process and across processes through an advisory lock file.
package importer
