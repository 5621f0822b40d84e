package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidVote   = errors.New("invalid vote")
	ErrRateLimited   = errors.New("rate limited")
	ErrUpstreamEmpty = errors.New("upstream returned no data")
)
