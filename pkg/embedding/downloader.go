package embedding

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// EnsureVectors checks if the embedding table exists at path.
// If not and url is set, it downloads the table. A .tgz/.tar.gz archive is
// unpacked to its first .txt or .vec member; any other payload is stored as is.
func EnsureVectors(ctx context.Context, path, url string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if url == "" {
		return fmt.Errorf("embedding table %s not found and no download url configured", path)
	}

	slog.Info("embedding table not found, downloading", "path", path, "url", url)
	return download(ctx, url, path)
}

func download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "etymoagent")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	// Write next to the destination and rename so a partial download never
	// looks like a usable table.
	tmp, err := os.CreateTemp(filepath.Dir(destPath), filepath.Base(destPath)+".part-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if isTarball(url) {
		err = extractTable(resp.Body, tmp)
	} else {
		_, err = io.Copy(tmp, resp.Body)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), destPath)
}

func isTarball(url string) bool {
	u := strings.ToLower(url)
	return strings.HasSuffix(u, ".tgz") || strings.HasSuffix(u, ".tar.gz")
}

func extractTable(r io.Reader, w io.Writer) error {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading tar archive: %w", err)
		}
		name := strings.ToLower(header.Name)
		if header.Typeflag == tar.TypeReg && (strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".vec")) {
			if _, err := io.Copy(w, tarReader); err != nil {
				return fmt.Errorf("failed to write to file: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("no embedding table found in downloaded archive")
}
