package bugtool

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ghodss/yaml"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sidkik/sitesync/cmd/util"
	"github.com/sidkik/sitesync/pkg/config"
	"github.com/sidkik/sitesync/pkg/errors"
	"github.com/sidkik/sitesync/pkg/site"
	"github.com/sidkik/sitesync/pkg/sync"
	"github.com/sidkik/sitesync/pkg/version"
)

var fs = afero.NewOsFs()

// New creates a new `bug-tool` command.
func New() *cobra.Command {
	var out string
	var flags util.TabFlags
	cmd := &cobra.Command{
		Use:   "bug-tool",
		Short: "Generate an archive for sitesync debugging",
		Long: "Generate an archive describing the sitesync setup. If --url is set,\n" +
			"the site's remote record is included, and if --local is set as well,\n" +
			"so are the local storage dump and the site's status.",
		Run: func(_ *cobra.Command, _ []string) { main(out, flags) },
	}
	cmd.Flags().StringVar(&out, "out", "", "path for archive")
	flags.Add(cmd, true)
	return cmd
}

func main(out string, flags util.TabFlags) {
	tmpdir, err := afero.TempDir(fs, "", "sitesync-bug-tool")
	if err != nil {
		err = errors.NewFriendlyError("Failed to create out directory:\n%s", err)
		util.HandleFatalError(err)
	}

	// Wrap defer in a function to handle errors from fs.RemoveAll().
	defer func() {
		err := fs.RemoveAll(tmpdir)
		if err != nil {
			util.HandleFatalError(err)
		}
	}()

	setupInfo(context.Background(), tmpdir, flags)

	if out == "" {
		out = fmt.Sprintf("sitesync-bug-info-%s.tar.gz",
			time.Now().Format("Jan_02_2006-15-04-05"))
	}
	if err := tarDirectory(tmpdir, out); err != nil {
		err = errors.NewFriendlyError("Failed to tar:\n%s", err)
		util.HandleFatalError(err)
	}

	msg := `Created bug information archive at '%s'.
You may want to edit the archive before sharing it, since local storage
values can contain sensitive information.
The archive contains:
 * The sitesync user config.
 * The version of the sitesync CLI.
 * The tracked sites and their last sync dates.
 * The remote record of the given site.
 * The local storage dump and status of the given site.
`
	fmt.Printf(msg, out)
}

func setupInfo(ctx context.Context, root string, flags util.TabFlags) {
	if err := setupVersion(root); err != nil {
		log.WithError(err).Warn("Failed to setup version info")
	}

	engine, cfg, closeEngine, err := util.NewEngine(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to open remote store")
		return
	}
	defer closeEngine()

	if err := setupConfig(root, cfg); err != nil {
		log.WithError(err).Warn("Failed to setup config")
	}

	if err := setupSites(ctx, root, engine); err != nil {
		log.WithError(err).Warn("Failed to setup tracked sites")
	}

	if flags.URL == "" {
		return
	}

	tab := site.Tab{ID: flags.URL, URL: flags.URL, Path: flags.Local}
	if err := setupRecord(ctx, root, engine, tab); err != nil {
		log.WithError(err).WithField("url", tab.URL).Warn("Failed to setup remote record")
	}

	if flags.Local == "" {
		return
	}

	if err := setupLocal(root, tab); err != nil {
		log.WithError(err).WithField("path", tab.Path).Warn("Failed to setup local dump")
	}

	if err := setupStatus(ctx, root, engine, tab); err != nil {
		log.WithError(err).WithField("url", tab.URL).Warn("Failed to setup status")
	}
}

func setupVersion(root string) error {
	return afero.WriteFile(fs, filepath.Join(root, "version"),
		[]byte(fmt.Sprintf("local version: %s\n", version.Version)), 0644)
}

func setupConfig(root string, cfg config.User) error {
	return writeYAML(filepath.Join(root, "config.yaml"), cfg)
}

func setupSites(ctx context.Context, root string, engine *sync.Engine) error {
	sites, err := engine.Sites(ctx)
	if err != nil {
		return errors.WithContext(err, "list sites")
	}

	type siteInfo struct {
		Origin string `json:"origin"`
		Date   string `json:"date"`
		Keys   int    `json:"keys"`
	}
	info := []siteInfo{}
	for _, s := range sites {
		info = append(info, siteInfo{s.Origin, s.Record.Date, len(s.Record.Data)})
	}
	return writeYAML(filepath.Join(root, "sites.yaml"), info)
}

func setupRecord(ctx context.Context, root string, engine *sync.Engine, tab site.Tab) error {
	record, err := engine.Record(ctx, tab)
	if err != nil {
		return errors.WithContext(err, "get record")
	}

	recordBytes, err := record.Marshal()
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, filepath.Join(root, "record.json"), recordBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

func setupLocal(root string, tab site.Tab) error {
	dump, err := afero.ReadFile(fs, tab.Path)
	if err != nil {
		return errors.WithContext(err, "read")
	}

	if err := afero.WriteFile(fs, filepath.Join(root, "local.json"), dump, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

func setupStatus(ctx context.Context, root string, engine *sync.Engine, tab site.Tab) error {
	_, entries, err := engine.Status(ctx, tab)
	if err != nil {
		return errors.WithContext(err, "get status")
	}

	type keyStatus struct {
		Key       string `json:"key"`
		InSync    bool   `json:"inSync"`
		HasLocal  bool   `json:"hasLocal"`
		HasRemote bool   `json:"hasRemote"`
	}
	status := []keyStatus{}
	for _, entry := range entries {
		status = append(status, keyStatus{
			Key:       entry.Key,
			InSync:    entry.InSync,
			HasLocal:  entry.LocalValue != nil,
			HasRemote: entry.RemoteValue != nil,
		})
	}
	return writeYAML(filepath.Join(root, "status.yaml"), status)
}

func writeYAML(path string, obj interface{}) error {
	objBytes, err := yaml.Marshal(obj)
	if err != nil {
		log.WithError(err).WithField("obj", obj).Warn("Failed to marshal")
		objBytes = []byte(fmt.Sprintf("%+v\n", obj))
	}

	if err := afero.WriteFile(fs, path, objBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

func tarDirectory(src, outPath string) error {
	out, err := fs.Create(outPath)
	if err != nil {
		return errors.WithContext(err, "open destination")
	}
	defer out.Close()

	gzw := gzip.NewWriter(out)
	defer gzw.Close()

	tw := tar.NewWriter(gzw)
	defer tw.Close()

	return afero.Walk(fs, src, func(file string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(fi, fi.Name())
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("make header %s", file))
		}

		relPath, err := filepath.Rel(src, file)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("get relative path of %s to %s", file, src))
		}

		header.Name = filepath.Join("sitesync-bug-info", relPath)
		if err := tw.WriteHeader(header); err != nil {
			return errors.WithContext(err, fmt.Sprintf("write %s header", file))
		}

		// Only write contents if it's a file (i.e. not a directory).
		if !fi.Mode().IsRegular() {
			return nil
		}

		f, err := fs.Open(file)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("open %s", file))
		}
		defer f.Close()

		if _, err := io.Copy(tw, f); err != nil {
			return errors.WithContext(err, fmt.Sprintf("copy %s", file))
		}
		return nil
	})
}
