package history

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	httpsURL = regexp.MustCompile(`^https?://[^/]+/([^/]+)/([^/]+?)/?$`)
	sshURL   = regexp.MustCompile(`^[^@]+@[^:]+:([^/]+)/([^/]+?)/?$`)
	gitURL   = regexp.MustCompile(`^git://[^/]+/([^/]+)/([^/]+?)/?$`)
)

// ParseRepoURL extracts the organization and repository name from a clone
// URL. HTTPS, SSH and git-protocol forms are recognized; a trailing .git
// suffix is stripped.
func ParseRepoURL(url string) (org, name string, err error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(url), ".git")

	for _, re := range []*regexp.Regexp{httpsURL, sshURL, gitURL} {
		if m := re.FindStringSubmatch(trimmed); len(m) == 3 {
			return m[1], m[2], nil
		}
	}
	return "", "", fmt.Errorf("unrecognized repository URL format: %s", url)
}

// RepoName returns just the repository name component of a clone URL.
func RepoName(url string) (string, error) {
	_, name, err := ParseRepoURL(url)
	return name, err
}
