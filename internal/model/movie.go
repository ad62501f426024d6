package model

import "github.com/google/uuid"

// Movie is a catalog entry from the `movies` table. Uniqueness holds on
// (Name, Year, Time); UUID is the identifier exposed to other systems.
type Movie struct {
    ID              uint64
    UUID            uuid.UUID
    Name            string
    Year            int
    Time            int // runtime in minutes
    IMDb            float64
    Votes           int
    MetaScore       *float64
    Gross           *float64
    Description     string
    Price           string // DECIMAL(10,2) kept as text to avoid float rounding
    CertificationID uint64
}

// NamedRef is an id/name pair used for genres, stars, directors and
// certifications.
type NamedRef struct {
    ID   uint64 `json:"id"`
    Name string `json:"name"`
}

// MovieDetail is a movie with its certification and many-to-many relations.
type MovieDetail struct {
    Movie
    Certification NamedRef
    Genres        []NamedRef
    Stars         []NamedRef
    Directors     []NamedRef
}
