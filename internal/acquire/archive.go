package acquire

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

const (
	archiveFileSuffix        = ".zip"
	archiveMaxRedirects      = 1
	archiveDirectoryMode     = 0o755
	archiveMinimumFileMode   = 0o600
	archiveLinkErrorFormat   = "resolve archive link for %s/%s: %w"
	archiveStatusErrorFormat = "download archive: unexpected status %s"
	archiveSizeErrorFormat   = "download archive: size exceeds limit %d"
	archiveEntryErrorFormat  = "%w: %s"
)

// NewGitHubClient returns a GitHub API client. A non-empty token authenticates
// requests, which raises rate limits and grants access to private repositories.
func NewGitHubClient(ctx context.Context, token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, tokenSource))
}

// ArchiveDownloader fetches a GitHub repository as a zipball instead of cloning it.
type ArchiveDownloader struct {
	Client *github.Client
	// HTTPClient downloads the archive from the resolved link. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// MaxArchiveBytes rejects larger downloads. Zero disables the limit.
	MaxArchiveBytes int64
}

// Acquire downloads the zipball for branch, or the default branch when branch
// is empty, and extracts it into destination without the archive's top-level
// directory.
func (downloader ArchiveDownloader) Acquire(ctx context.Context, source Source, branch string, destination string) error {
	if !source.IsGitHub() {
		return fmt.Errorf("%w: archive download requires a GitHub repository, got %q", ErrUnsupportedSource, source.Identifier)
	}
	client := downloader.Client
	if client == nil {
		client = github.NewClient(nil)
	}

	archiveLink, response, linkError := client.Repositories.GetArchiveLink(
		ctx,
		source.Owner,
		source.Repository,
		github.Zipball,
		&github.RepositoryContentGetOptions{Ref: branch},
		archiveMaxRedirects,
	)
	if linkError != nil {
		return classifyArchiveError(source, branch, response, linkError)
	}

	archivePath := strings.TrimRight(destination, string(filepath.Separator)) + archiveFileSuffix
	defer os.Remove(archivePath)
	if downloadError := downloader.download(ctx, archiveLink.String(), archivePath); downloadError != nil {
		return downloadError
	}
	return ExtractZipArchive(archivePath, destination)
}

func (downloader ArchiveDownloader) download(ctx context.Context, link string, archivePath string) error {
	httpClient := downloader.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	request, requestError := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if requestError != nil {
		return fmt.Errorf("download archive: %w", requestError)
	}
	response, responseError := httpClient.Do(request)
	if responseError != nil {
		return fmt.Errorf("download archive: %w", responseError)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf(archiveStatusErrorFormat, response.Status)
	}

	archiveFile, createError := os.Create(archivePath)
	if createError != nil {
		return fmt.Errorf("create archive file: %w", createError)
	}
	defer archiveFile.Close()

	var body io.Reader = response.Body
	if downloader.MaxArchiveBytes > 0 {
		body = io.LimitReader(response.Body, downloader.MaxArchiveBytes+1)
	}
	written, copyError := io.Copy(archiveFile, body)
	if copyError != nil {
		return fmt.Errorf("download archive: %w", copyError)
	}
	if downloader.MaxArchiveBytes > 0 && written > downloader.MaxArchiveBytes {
		return fmt.Errorf(archiveSizeErrorFormat, downloader.MaxArchiveBytes)
	}
	return archiveFile.Close()
}

func classifyArchiveError(source Source, branch string, response *github.Response, linkError error) error {
	statusCode := 0
	if response != nil && response.Response != nil {
		statusCode = response.StatusCode
	}
	var gitHubError *github.ErrorResponse
	if statusCode == 0 && errors.As(linkError, &gitHubError) && gitHubError.Response != nil {
		statusCode = gitHubError.Response.StatusCode
	}
	if statusCode == http.StatusNotFound {
		if branch != "" {
			return fmt.Errorf(branchNotFoundFormat+" in %s/%s", ErrBranchNotFound, branch, source.Owner, source.Repository)
		}
		return fmt.Errorf("%w: %s/%s", ErrRepositoryNotFound, source.Owner, source.Repository)
	}
	return fmt.Errorf(archiveLinkErrorFormat, source.Owner, source.Repository, linkError)
}

// ExtractZipArchive unpacks archivePath into destination, dropping the first
// path segment of every entry. Entries that would resolve outside destination
// abort the extraction with ErrUnsafeArchivePath. Symbolic link entries are
// written as regular files holding the link target.
func ExtractZipArchive(archivePath string, destination string) error {
	reader, openError := zip.OpenReader(archivePath)
	if errors.Is(openError, zip.ErrInsecurePath) {
		reader.Close()
		return fmt.Errorf("%w: %v", ErrUnsafeArchivePath, openError)
	}
	if openError != nil {
		return fmt.Errorf("open archive: %w", openError)
	}
	defer reader.Close()

	cleanDestination := filepath.Clean(destination)
	if makeError := os.MkdirAll(cleanDestination, archiveDirectoryMode); makeError != nil {
		return fmt.Errorf("create destination: %w", makeError)
	}

	for _, archiveEntry := range reader.File {
		relativeName, hasContent := stripTopLevelDirectory(archiveEntry.Name)
		if !hasContent {
			continue
		}
		targetPath, pathError := safeJoin(cleanDestination, relativeName)
		if pathError != nil {
			return pathError
		}
		if archiveEntry.FileInfo().IsDir() {
			if makeError := os.MkdirAll(targetPath, archiveDirectoryMode); makeError != nil {
				return fmt.Errorf("create %s: %w", targetPath, makeError)
			}
			continue
		}
		if extractError := extractZipEntry(archiveEntry, targetPath); extractError != nil {
			return extractError
		}
	}
	return nil
}

func stripTopLevelDirectory(entryName string) (string, bool) {
	normalized := strings.ReplaceAll(entryName, "\\", "/")
	separator := strings.Index(normalized, "/")
	if separator < 0 {
		return "", false
	}
	remainder := strings.Trim(normalized[separator+1:], "/")
	return remainder, remainder != ""
}

func safeJoin(destination string, relativeName string) (string, error) {
	if filepath.IsAbs(relativeName) || strings.HasPrefix(relativeName, "/") {
		return "", fmt.Errorf(archiveEntryErrorFormat, ErrUnsafeArchivePath, relativeName)
	}
	targetPath := filepath.Join(destination, filepath.FromSlash(relativeName))
	relativeToDestination, relativeError := filepath.Rel(destination, targetPath)
	if relativeError != nil || relativeToDestination == ".." || strings.HasPrefix(relativeToDestination, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf(archiveEntryErrorFormat, ErrUnsafeArchivePath, relativeName)
	}
	return targetPath, nil
}

func extractZipEntry(archiveEntry *zip.File, targetPath string) error {
	if makeError := os.MkdirAll(filepath.Dir(targetPath), archiveDirectoryMode); makeError != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(targetPath), makeError)
	}
	entryReader, openError := archiveEntry.Open()
	if openError != nil {
		return fmt.Errorf("open archive entry %s: %w", archiveEntry.Name, openError)
	}
	defer entryReader.Close()

	fileMode := archiveEntry.Mode().Perm() | archiveMinimumFileMode
	targetFile, createError := os.OpenFile(targetPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileMode)
	if createError != nil {
		return fmt.Errorf("create %s: %w", targetPath, createError)
	}
	if _, copyError := io.Copy(targetFile, entryReader); copyError != nil {
		targetFile.Close()
		return fmt.Errorf("extract %s: %w", archiveEntry.Name, copyError)
	}
	return targetFile.Close()
}
