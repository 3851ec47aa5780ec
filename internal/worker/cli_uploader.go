package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kramerology/vod2tube/internal/failure"
)

// CLIUploader shells to an uploader binary that speaks to the public
// video-hosting service's OAuth upload API — that API itself is an
// external collaborator (§1) this package never talks to directly. The
// binary is expected to print the remote video id as the last non-empty
// line of stdout on success.
type CLIUploader struct {
	BinaryPath     string
	CredentialsPath string
}

func NewCLIUploader(binaryPath, credentialsPath string) *CLIUploader {
	return &CLIUploader{BinaryPath: binaryPath, CredentialsPath: credentialsPath}
}

func (u *CLIUploader) Upload(ctx context.Context, filePath string, meta UploadMetadata, onProgress func(string)) (string, error) {
	args := []string{
		"--credentials", u.CredentialsPath,
		"--file", filePath,
		"--title", meta.Title,
		"--description", meta.Description,
		"--category", meta.Category,
		"--privacy", meta.Privacy,
	}
	if meta.MadeForKids {
		args = append(args, "--made-for-kids")
	}
	for _, tag := range meta.Tags {
		args = append(args, "--tag", tag)
	}

	cmd := exec.CommandContext(ctx, u.BinaryPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("attach stdout pipe: %w", err)
	}
	if _, statErr := os.Stat(u.CredentialsPath); statErr != nil {
		return "", failure.Permanent(fmt.Errorf("upload credentials unavailable at %s: %w", u.CredentialsPath, statErr))
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start uploader: %w", err)
	}

	var lastLine string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lastLine = line
		onProgress(line)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("uploader exited: %w", err)
	}
	if lastLine == "" {
		return "", failure.Permanent(fmt.Errorf("uploader produced no video id"))
	}
	return lastLine, nil
}

