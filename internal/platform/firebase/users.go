package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
)

// UserLister counts users through the Auth admin listing.
type UserLister struct {
	client *auth.Client
}

// NewUserLister wraps an Auth client.
func NewUserLister(client *auth.Client) *UserLister {
	return &UserLister{client: client}
}

// CountUsers fetches a single page of at most limit users and returns its size.
func (l *UserLister) CountUsers(ctx context.Context, limit int) (int, error) {
	pager := iterator.NewPager(l.client.Users(ctx, ""), limit, "")
	var users []*auth.ExportedUserRecord
	if _, err := pager.NextPage(&users); err != nil {
		return 0, fmt.Errorf("listing users: %w", err)
	}
	return len(users), nil
}
