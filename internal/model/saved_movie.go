package model

// SavedMovie is a watch-list entry in the `saved_movies` table.  The
// pair (UserID, MovieID) is its identity; there are no other columns.
type SavedMovie struct {
	UserID  uint64 // saved_movies.user_id
	MovieID uint64 // saved_movies.movie_id
}
