package utils

import "strings"

// IsGoogleForm reports whether the page is a Google Forms page.
func IsGoogleForm(host, path string) bool {
	return strings.Contains(strings.ToLower(host), "docs.google.com") && strings.Contains(path, "/forms/")
}

// IsTopPage reports whether path is a site top page.
func IsTopPage(path string) bool {
	switch path {
	case "/", "/index.html", "/index.php":
		return true
	}
	return false
}
