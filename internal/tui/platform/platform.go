// Package platform covers the host-system edges of the client: launching a
// browser and reaching the clipboard.
package platform

import (
	"bytes"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// PostWebURL derives the web permalink for a post from the API base URL.
// The board serves its web UI on the same origin, one level above /api.
func PostWebURL(apiBaseURL, postID string) (string, error) {
	trimmed := strings.TrimSpace(apiBaseURL)
	if trimmed == "" || strings.TrimSpace(postID) == "" {
		return "", fmt.Errorf("post has no web address")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid base URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid URL host")
	}
	parsed.Path = strings.TrimSuffix(strings.TrimSuffix(parsed.Path, "/"), "/api") + "/posts/" + url.PathEscape(postID)
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}

func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

func OpenURLInBrowser(url string) error {
	name, args := browserCommand(runtime.GOOS, url)
	return exec.Command(name, args...).Run()
}

func selectClipboardCommand(lookup func(string) (string, error)) ([]string, error) {
	commands := [][]string{
		{"pbcopy"},
		{"xclip", "-selection", "clipboard"},
		{"wl-copy"},
	}
	for _, c := range commands {
		if _, err := lookup(c[0]); err == nil {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no clipboard command available")
}

func CopyToClipboard(text string) error {
	c, err := selectClipboardCommand(exec.LookPath)
	if err != nil {
		return err
	}
	cmd := exec.Command(c[0], c[1:]...)
	cmd.Stdin = bytes.NewBufferString(text)
	return cmd.Run()
}
