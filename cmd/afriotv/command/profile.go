package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"afriotv/internal/upload"
	"afriotv/pkg/client"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View and edit your profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, ctx, done, err := openRoot(cmd)
		if err != nil {
			return err
		}
		defer done()
		uid, err := requireUID(root)
		if err != nil {
			return err
		}

		u, err := root.Client.GetProfile(ctx, uid)
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}
		printProfile(u)
		return nil
	},
}

func printProfile(u *client.User) {
	photo := u.PhotoURL
	if photo == "" {
		photo = dimColor.Sprint("(none)")
	}
	fmt.Println(renderTable(
		[]string{"Field", "Value"},
		[][]string{
			{"ID", u.ID},
			{"Email", u.Email},
			{"Display name", u.DisplayName},
			{"Photo", photo},
		},
		nil,
	))
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change your display name or photo URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		var upd client.ProfileUpdate
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			upd.DisplayName = &name
		}
		if cmd.Flags().Changed("photo-url") {
			photo, _ := cmd.Flags().GetString("photo-url")
			upd.PhotoURL = &photo
		}
		if upd.DisplayName == nil && upd.PhotoURL == nil {
			return errors.New("nothing to update, pass --name or --photo-url")
		}

		root, ctx, done, err := openRoot(cmd)
		if err != nil {
			return err
		}
		defer done()
		uid, err := requireUID(root)
		if err != nil {
			return err
		}

		u, err := root.Client.UpdateProfile(ctx, uid, upd)
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		successColor.Println("✓ Profile updated")
		printProfile(u)
		return nil
	},
}

var profileAvatarCmd = &cobra.Command{
	Use:   "avatar [image-file]",
	Short: "Upload a new avatar (5 MB max)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() > upload.MaxAvatarSize {
			return upload.ErrFileTooLarge
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		root, ctx, done, err := openRoot(cmd)
		if err != nil {
			return err
		}
		defer done()
		if _, err := requireUID(root); err != nil {
			return err
		}

		bar := progressbar.DefaultBytes(info.Size(), "uploading")
		task, err := root.UploadAvatar(ctx, filepath.Base(path), f, info.Size(), func(p upload.Progress) {
			bar.Set64(p.BytesTransferred)
		})
		if err != nil {
			return err
		}

		url, err := task.Wait(ctx)
		bar.Finish()
		fmt.Println()
		if errors.Is(err, context.DeadlineExceeded) {
			task.Cancel()
			return fmt.Errorf("upload timed out, try a larger --timeout")
		}
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		successColor.Println("✓ Avatar updated")
		fmt.Println(url)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd, profileUpdateCmd, profileAvatarCmd)

	profileUpdateCmd.Flags().String("name", "", "New display name")
	profileUpdateCmd.Flags().String("photo-url", "", "New photo URL")
}
