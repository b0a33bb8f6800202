package client

import (
	"math/rand/v2"

	"airdrop_farmer/internal/pkg/utils"
)

const fallbackUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// UserAgents picks a random User-Agent per connection.
type UserAgents struct {
	list []string
}

// LoadUserAgents reads one agent per line; a missing or empty file falls
// back to a desktop Chrome agent.
func LoadUserAgents(path string) (*UserAgents, error) {
	lines, err := utils.ReadLines(path, false)
	if err != nil {
		return nil, err
	}
	return &UserAgents{list: lines}, nil
}

func (u *UserAgents) Random() string {
	if u == nil || len(u.list) == 0 {
		return fallbackUserAgent
	}
	return u.list[rand.IntN(len(u.list))]
}
