package cli

import (
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mediamap/internal/storage"
)

func (a *app) pushCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "push [dir]",
		Short: "Upload the media directory to the MinIO bucket",
		Long: `Uploads every file below dir (default Media) to the configured bucket.
Object keys keep the relative path, so media_path references such as
Media/photo.jpg resolve with --backend minio.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Media.FallbackDir
			if len(args) > 0 {
				dir = args[0]
			}
			ctx := cmd.Context()

			var up storage.Uploader
			if !dryRun {
				var err error
				if up, err = a.uploader(ctx, a.cfg.MinIO); err != nil {
					return fmt.Errorf("object storage: %w", err)
				}
			}

			var files int
			var bytes int64
			err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.Type().IsRegular() {
					return nil
				}
				key := storage.ObjectKey(p)
				if dryRun {
					cmd.Println(key)
					files++
					return nil
				}
				info, err := putFile(cmd, up, p, key)
				if err != nil {
					return err
				}
				files++
				bytes += info.Size
				return nil
			})
			if err != nil {
				return err
			}
			if dryRun {
				cmd.Printf("%d files would be uploaded\n", files)
				return nil
			}
			cmd.Printf("Uploaded %d files (%.1f MB)\n", files, storage.ObjectInfo{Size: bytes}.SizeMB())
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the object keys without uploading")
	return cmd
}

func putFile(cmd *cobra.Command, up storage.Uploader, p, key string) (storage.ObjectInfo, error) {
	f, err := os.Open(p)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return storage.ObjectInfo{}, err
	}

	ct := mime.TypeByExtension(filepath.Ext(p))
	if ct == "" {
		ct = "application/octet-stream"
	}
	info, err := up.Put(cmd.Context(), key, f, storage.PutObjectOptions{
		Size:        st.Size(),
		ContentType: ct,
		Metadata:    map[string]string{"original-filename": filepath.Base(p)},
	})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload %s: %w", p, err)
	}
	return info, nil
}
