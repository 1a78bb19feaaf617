// Package policy decides which actors may perform which mutations. Every
// function is pure; callers turn a false answer into models.ErrForbidden
// with Require before touching the store.
package policy

import "blog/internal/models"

// CanCreatePost is true only for the admin.
func CanCreatePost(actor models.Actor) bool {
	return actor.IsAuthenticated() && actor.IsAdmin()
}

// CanEditPost is true only for the admin, whoever authored post.
func CanEditPost(actor models.Actor, post *models.Post) bool {
	return CanCreatePost(actor)
}

// CanDeletePost is true only for the admin, whoever authored post.
func CanDeletePost(actor models.Actor, post *models.Post) bool {
	return CanCreatePost(actor)
}

// CanComment is true for any signed-in actor.
func CanComment(actor models.Actor) bool {
	return actor.IsAuthenticated()
}

func Require(allowed bool) error {
	if !allowed {
		return models.ErrForbidden
	}
	return nil
}
