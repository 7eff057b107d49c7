package model

// Review is one user's rating of one movie, stored in `reviews`.
// There is at most one review per (UserID, MovieID).
type Review struct {
	UserID  uint64 // reviews.user_id
	MovieID uint64 // reviews.movie_id
	Rating  int    // reviews.rating
}
