package model

import "strconv"

// Movie represents a row in the `movies` table.  Movies are seeded
// outside of the application; the only column the application
// writes is UserRating, the average of every review of the movie.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title.
//  Year        – release year.
//  Description – short synopsis.
//  Image       – poster file name or URL.
//  UserRating  – average review rating, nil while unrated.
type Movie struct {
	ID          uint64   // movies.id
	Title       string   // movies.title
	Year        int      // movies.year
	Description string   // movies.description
	Image       string   // movies.image
	UserRating  *float64 // movies.user_rating (nullable)
}

// RatingText formats UserRating with one decimal, or "-" when unrated.
func (m Movie) RatingText() string {
	if m.UserRating == nil {
		return "-"
	}
	return strconv.FormatFloat(*m.UserRating, 'f', 1, 64)
}
