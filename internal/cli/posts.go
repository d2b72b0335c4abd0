package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yourusername/flatblog/internal/post"
)

func newPostsCmd(opts *globalOptions) *cobra.Command {
	postsCmd := &cobra.Command{
		Use:   "posts",
		Short: "Manage posts in the posts file",
		Long:  `List, show, create, update, delete or export posts without running the server. Do not run these while the server is writing the same file.`,
	}

	postsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openForCLI(cmd, opts)
			if err != nil {
				return err
			}

			posts := store.List()
			if len(posts) == 0 {
				cmd.Println("No posts found.")
				return nil
			}

			for _, p := range posts {
				cmd.Printf("  %d\t%s\n", p.ID, p.Title)
			}
			cmd.Printf("\nTotal: %d posts\n", len(posts))
			return nil
		},
	})

	postsCmd.AddCommand(&cobra.Command{
		Use:   "show [id]",
		Short: "Print a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := openForCLI(cmd, opts)
			if err != nil {
				return err
			}

			p, err := store.FindByID(id)
			if err != nil {
				return notFound(id, err)
			}
			cmd.Println(post.Render(p))
			return nil
		},
	})

	var title, content string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openForCLI(cmd, opts)
			if err != nil {
				return err
			}

			p, err := store.Create(cmd.Context(), title, content)
			if err != nil {
				return fmt.Errorf("failed to create post: %w", err)
			}
			cmd.Printf("Created post %d\n", p.ID)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&title, "title", "t", "", "Post title")
	createCmd.Flags().StringVarP(&content, "content", "b", "", "Post content")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("content")
	postsCmd.AddCommand(createCmd)

	updateCmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Replace a post's title and content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := openForCLI(cmd, opts)
			if err != nil {
				return err
			}

			if _, err := store.Update(cmd.Context(), id, title, content); err != nil {
				return notFound(id, err)
			}
			cmd.Printf("Updated post %d\n", id)
			return nil
		},
	}
	updateCmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	updateCmd.Flags().StringVarP(&content, "content", "b", "", "New content")
	_ = updateCmd.MarkFlagRequired("title")
	_ = updateCmd.MarkFlagRequired("content")
	postsCmd.AddCommand(updateCmd)

	postsCmd.AddCommand(&cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := openForCLI(cmd, opts)
			if err != nil {
				return err
			}

			if err := store.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete post: %w", err)
			}
			cmd.Printf("Deleted post %d\n", id)
			return nil
		},
	})

	postsCmd.AddCommand(&cobra.Command{
		Use:   "export [id]",
		Short: "Write a post to a text file in the export directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := openForCLI(cmd, opts)
			if err != nil {
				return err
			}

			path, err := store.Export(cmd.Context(), id)
			if err != nil {
				return notFound(id, err)
			}
			cmd.Printf("Exported post %d to %s\n", id, path)
			return nil
		},
	})

	return postsCmd
}

func openForCLI(cmd *cobra.Command, opts *globalOptions) (*post.Store, error) {
	cfg, logger, err := setup(cmd, opts)
	if err != nil {
		return nil, err
	}
	return openStore(cfg, logger, nil)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid post id %q", arg)
	}
	return id, nil
}

// notFound rewords ErrNotFound for the terminal and passes other errors through.
func notFound(id int, err error) error {
	if errors.Is(err, post.ErrNotFound) {
		return fmt.Errorf("post %d not found: %w", id, err)
	}
	return err
}
