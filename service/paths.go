package service

import "net/url"

// ProfilePath is where a successful registration or login lands
func ProfilePath(username string) string {
	return "/profile/" + url.PathEscape(username)
}
