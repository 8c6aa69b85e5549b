package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang-statement-importer/pkg/errors"
)

// confirm asks a y/N question on out and reads one answer line from in.
// Anything but an explicit yes, including EOF, declines.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.InternalError(errors.CodeUnexpectedError, "confirmation", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "д", "да":
		return true, nil
	default:
		return false, nil
	}
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return errors.ValidationError(errors.CodeMissingField, description, "", nil).
			WithSuggestion(fmt.Sprintf("pass the %s path as an argument", description))
	}

	info, err := os.Stat(filePath)
	if os.IsPermission(err) {
		return errors.FileError(errors.CodeFilePermission, filePath, err)
	}
	if err != nil {
		return errors.FileError(errors.CodeFileNotFound, filePath, err)
	}
	if info.IsDir() {
		return errors.FileError(errors.CodeFileNotFound, filePath,
			fmt.Errorf("%s is a directory, expected a file", description))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, filePath, err)
	}
	file.Close()

	return nil
}
