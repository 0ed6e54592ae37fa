package importer

import "catalogsync/internal/catalog"

// Result summarizes one import. Counters only include successful upserts,
// except the *Skipped and *Failed fields which count isolated failures.
type Result struct {
	Success          bool         `json:"success"`
	TitleID          int64        `json:"titleId,omitempty"`
	ExternalID       string       `json:"externalId"`
	Title            string       `json:"title,omitempty"`
	Kind             catalog.Kind `json:"kind,omitempty"`
	SeasonsImported  int          `json:"seasonsImported"`
	EpisodesImported int          `json:"episodesImported"`
	SeasonsSkipped   int          `json:"seasonsSkipped"`
	EpisodesFailed   int          `json:"episodesFailed"`
	LinkFailures     int          `json:"linkFailures"`
	CorrelationID    string       `json:"correlationId,omitempty"`
}
