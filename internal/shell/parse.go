package shell

import "strings"

// backgroundMarker is the trailing token that runs a job in the background.
const backgroundMarker = "&"

// parseLine splits cmdline into an argument vector and reports whether the job
// should run in the background.
//
// Words are separated by spaces and tabs. A word that starts with a single
// quote runs to the next single quote, which lets it contain spaces; an
// unterminated quote runs to the end of the line. A trailing "&" word is
// removed from the vector and requests a background job.
func parseLine(cmdline string) ([]string, bool) {
	var argv []string

	rest := strings.TrimRight(cmdline, "\r\n")

	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			break
		}

		var word string

		if rest[0] == '\'' {
			rest = rest[1:]

			end := strings.IndexByte(rest, '\'')
			if end < 0 {
				word, rest = rest, ""
			} else {
				word, rest = rest[:end], rest[end+1:]
			}
		} else {
			end := strings.IndexAny(rest, " \t")
			if end < 0 {
				end = len(rest)
			}

			word, rest = rest[:end], rest[end:]
		}

		argv = append(argv, word)
	}

	if len(argv) == 0 {
		return nil, false
	}

	bg := argv[len(argv)-1] == backgroundMarker
	if bg {
		argv = argv[:len(argv)-1]
	}

	return argv, bg
}
