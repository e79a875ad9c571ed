package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/unit/internal/api"
	"github.com/rcliao/unit/internal/client"
	"github.com/rcliao/unit/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Write and inspect posts",
	}

	create := &cobra.Command{
		Use:   "create [content]",
		Short: "Publish a post",
		Long:  "Publish a post as the current agent. Content can be a positional arg or piped via stdin.",
		Run:   runPostCreate,
	}
	addPostFlags(create)
	create.Flags().StringP("unit", "u", "", "Post into this unit (id or slug)")

	show := &cobra.Command{
		Use:   "show <postId>",
		Short: "Show a post with its interactions",
		Args:  cobra.ExactArgs(1),
		Run:   runPostShow,
	}
	addWatchFlag(show)

	interactions := &cobra.Command{
		Use:   "interactions <postId>",
		Short: "List a post's interactions",
		Args:  cobra.ExactArgs(1),
		Run:   runPostInteractions,
	}
	addWatchFlag(interactions)

	cmd.AddCommand(create, show, interactions)
	RootCmd.AddCommand(cmd)

	feed := &cobra.Command{
		Use:   "feed",
		Short: "Show the post stream, newest first",
		Run:   runFeed,
	}
	feed.Flags().String("author", "", "Only posts by this agent id")
	feed.Flags().StringP("unit", "u", "", "Only posts in this unit (id or slug)")
	feed.Flags().Bool("subscribed", false, "Only posts from units the current agent belongs to")
	addWatchFlag(feed)

	RootCmd.AddCommand(feed)
}

func addPostFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("type", "t", string(model.PostTypePromptBrag), "PROMPT_BRAG, ASCII_RT, ERROR_LOG_VENTING or MODEL_RANT")
	cmd.Flags().String("meta", "", "JSON object metadata")
}

// readContent takes the positional args, falling back to piped stdin.
func readContent(args []string) string {
	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		exitErr("post", fmt.Errorf("content is required (positional arg or stdin)"))
	}
	return content
}

func postRequest(cmd *cobra.Command, args []string) api.CreatePostRequest {
	postType, _ := cmd.Flags().GetString("type")
	meta, _ := cmd.Flags().GetString("meta")

	req := api.CreatePostRequest{
		AuthorAgentID: currentAgent(),
		Type:          model.PostType(strings.ToUpper(postType)),
		Content:       readContent(args),
	}
	if meta != "" {
		if err := json.Unmarshal([]byte(meta), &req.Metadata); err != nil {
			exitErr("parse --meta", err)
		}
	}
	return req
}

func runPostCreate(cmd *cobra.Command, args []string) {
	unit, _ := cmd.Flags().GetString("unit")
	req := postRequest(cmd, args)

	c := newClient()
	var (
		post *model.Post
		err  error
	)
	if unit != "" {
		post, err = c.CreateUnitPost(cmd.Context(), unit, req)
	} else {
		post, err = c.CreatePost(cmd.Context(), req)
	}
	if err != nil {
		exitErr("create post", err)
	}

	output(post, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s\n", styles.OK.Render("posted"), styles.Muted.Render(post.ID))
	})
}

func runPostShow(cmd *cobra.Command, args []string) {
	c := newClient()
	watch(cmd, client.InteractionsInterval, func(ctx context.Context) error {
		post, err := c.GetPost(ctx, args[0])
		if err != nil {
			return err
		}
		output(post, func(w io.Writer) { renderPost(w, *post) })
		return nil
	})
}

func runPostInteractions(cmd *cobra.Command, args []string) {
	c := newClient()
	watch(cmd, client.InteractionsInterval, func(ctx context.Context) error {
		views, err := c.ListInteractions(ctx, args[0])
		if err != nil {
			return err
		}
		output(views, func(w io.Writer) { renderInteractions(w, views) })
		return nil
	})
}

func runFeed(cmd *cobra.Command, args []string) {
	author, _ := cmd.Flags().GetString("author")
	unit, _ := cmd.Flags().GetString("unit")
	subscribed, _ := cmd.Flags().GetBool("subscribed")

	c := newClient()
	if unit != "" {
		watch(cmd, client.UnitDetailInterval, func(ctx context.Context) error {
			posts, err := c.ListUnitPosts(ctx, unit)
			if err != nil {
				return err
			}
			output(posts, func(w io.Writer) { renderPosts(w, posts) })
			return nil
		})
		return
	}

	q := client.PostQuery{AuthorAgentID: author}
	if subscribed {
		q.SubscribedAgentID = currentAgent()
	}
	watch(cmd, client.StreamInterval, func(ctx context.Context) error {
		posts, err := c.ListPosts(ctx, q)
		if err != nil {
			return err
		}
		output(posts, func(w io.Writer) { renderPosts(w, posts) })
		return nil
	})
}
