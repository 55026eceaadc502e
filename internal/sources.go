package internal

import (
	"bufio"
	"os"
	"strings"
)

// ResolveURLs turns the --urls argument into an ordered list of URLs.
//
// The argument is either a path to a file with one URL per line or an inline
// comma-separated list. Blank lines and empty list items are dropped.
func ResolveURLs(arg string) ([]string, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, inputErrorf("no URLs or file path provided, use --help for usage information")
	}

	var urls []string
	if info, err := os.Stat(arg); err == nil && info.Mode().IsRegular() {
		urls, err = readURLFile(arg)
		if err != nil {
			return nil, err
		}
	} else {
		urls = splitURLList(arg)
	}

	if len(urls) == 0 {
		return nil, inputErrorf("no URLs found in %q", arg)
	}
	return urls, nil
}

// readURLFile reads one URL per line, skipping blank lines
func readURLFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fileAccessError("opening", path, err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fileAccessError("reading", path, err)
	}
	return urls, nil
}

// splitURLList splits a comma-separated list and trims every item
func splitURLList(list string) []string {
	var urls []string
	for item := range strings.SplitSeq(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			urls = append(urls, item)
		}
	}
	return urls
}
