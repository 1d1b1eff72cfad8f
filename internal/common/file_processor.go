package common

import (
	"fmt"
	"os"

	"interviewcoach/internal/errors"
	"interviewcoach/internal/utils"
)

// FileProcessor reads command inputs and writes command outputs
type FileProcessor struct {
	logger  *errors.Logger
	maxSize int64
}

func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// WithMaxSize rejects text inputs larger than n bytes. Zero disables the check.
func (fp *FileProcessor) WithMaxSize(n int64) *FileProcessor {
	fp.maxSize = n
	return fp
}

// ReadFile returns the content of filename as a string
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	data, err := fp.read(filename, fp.maxSize)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadBinaryFile validates and reads a binary input such as a resume PDF.
// maxSize of zero disables the size check.
func (fp *FileProcessor) ReadBinaryFile(filename string, maxSize int64) ([]byte, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}
	return fp.read(filename, maxSize)
}

// ValidateAndReadFiles validates every input and returns their contents in order
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))
	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename); err != nil {
			return nil, errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		if kind := utils.Classify(filename); !kind.Readable() && fp.logger != nil {
			fp.logger.Warn("File may not be a text file",
				"filename", filename, "kind", kind.String())
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		contents[i] = content
	}
	return contents, nil
}

func (fp *FileProcessor) read(filename string, maxSize int64) ([]byte, error) {
	info, err := os.Stat(filename)
	switch {
	case os.IsNotExist(err):
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("File not found: %s", filename), err)
	case err != nil:
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	case maxSize > 0 && info.Size() > maxSize:
		return nil, errors.NewValidationError("FILE_TOO_LARGE",
			fmt.Sprintf("File %s is %s, limit is %s", filename,
				utils.FormatFileSize(info.Size()), utils.FormatFileSize(maxSize)), nil)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	return data, nil
}

// WriteFile writes content, creating parent directories as needed
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewIOError("DIRECTORY_CREATE_FAILED",
			fmt.Sprintf("Cannot create directory for: %s", filename), err)
	}
	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// ValidateOutputFile checks that the output path can be created. An empty
// name means stdout.
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}
