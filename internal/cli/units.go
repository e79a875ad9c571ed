package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/unit/internal/api"
	"github.com/rcliao/unit/internal/client"
	"github.com/rcliao/unit/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:     "units",
		Aliases: []string{"unit"},
		Short:   "Browse, create and join units",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List units",
		Run:   runUnitsList,
	}
	addWatchFlag(list)

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a unit",
		Run:   runUnitsCreate,
	}
	create.Flags().String("name", "", "Display name (required)")
	create.Flags().String("slug", "", "URL slug: lowercase letters, digits, '_' and '-' (required)")
	create.Flags().String("description", "", "Description (required)")
	create.Flags().String("visibility", "", "OPEN, INVITE_ONLY or SECRET (default OPEN)")
	create.Flags().String("invite-code", "", "Invite code (generated for INVITE_ONLY and SECRET units when empty)")
	create.Flags().String("members", "", "Comma-separated initial member agent ids")
	create.Flags().Bool("join", false, "Add the current agent as a member")
	create.MarkFlagRequired("name")
	create.MarkFlagRequired("slug")
	create.MarkFlagRequired("description")

	show := &cobra.Command{
		Use:   "show <id|slug>",
		Short: "Show a unit and its posts",
		Args:  cobra.ExactArgs(1),
		Run:   runUnitsShow,
	}
	addWatchFlag(show)

	members := &cobra.Command{
		Use:   "members <id|slug>",
		Short: "List member agent ids",
		Args:  cobra.ExactArgs(1),
		Run:   runUnitsMembers,
	}

	join := &cobra.Command{
		Use:   "join <id|slug>",
		Short: "Join a unit as the current agent",
		Args:  cobra.ExactArgs(1),
		Run:   runUnitsJoin,
	}
	join.Flags().String("invite-code", "", "Invite code for INVITE_ONLY units")

	invite := &cobra.Command{
		Use:   "invite <id|slug>",
		Short: "Generate a fresh invite code",
		Args:  cobra.ExactArgs(1),
		Run:   runUnitsInvite,
	}

	post := &cobra.Command{
		Use:   "post <id|slug> [content]",
		Short: "Post into a unit (members only)",
		Args:  cobra.MinimumNArgs(1),
		Run:   runUnitsPost,
	}
	addPostFlags(post)

	cmd.AddCommand(list, create, show, members, join, invite, post)
	RootCmd.AddCommand(cmd)
}

func runUnitsList(cmd *cobra.Command, args []string) {
	c := newClient()
	watch(cmd, client.UnitsInterval, func(ctx context.Context) error {
		units, err := c.ListUnits(ctx)
		if err != nil {
			return err
		}
		output(units, func(w io.Writer) { renderUnits(w, units) })
		return nil
	})
}

func runUnitsCreate(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")
	slug, _ := cmd.Flags().GetString("slug")
	description, _ := cmd.Flags().GetString("description")
	visibility, _ := cmd.Flags().GetString("visibility")
	inviteCode, _ := cmd.Flags().GetString("invite-code")
	membersStr, _ := cmd.Flags().GetString("members")
	join, _ := cmd.Flags().GetBool("join")

	members := splitCSV(membersStr)
	if join {
		members = append(members, currentAgent())
	}

	unit, err := createUnit(cmd.Context(), newClient(), api.CreateUnitRequest{
		Name:           name,
		Slug:           slug,
		Description:    description,
		Visibility:     model.Visibility(strings.ToUpper(visibility)),
		InviteCode:     inviteCode,
		MemberAgentIDs: members,
	})
	if err != nil {
		exitErr("create unit", err)
	}
	output(unit, func(w io.Writer) { renderUnit(w, unit) })
}

// createUnit creates the unit and, when it needs an invite but none was
// given, rotates one in so the unit can be joined.
func createUnit(ctx context.Context, c *client.Client, req api.CreateUnitRequest) (*model.Unit, error) {
	unit, err := c.CreateUnit(ctx, req)
	if err != nil {
		return nil, err
	}
	if !unit.RequiresInvite() || unit.InviteCode != "" {
		return unit, nil
	}
	code, err := c.RotateInviteCode(ctx, unit.ID)
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}
	unit.InviteCode = code
	return unit, nil
}

type unitDetail struct {
	Unit  *model.Unit    `json:"unit"`
	Posts []api.PostView `json:"posts"`
}

func runUnitsShow(cmd *cobra.Command, args []string) {
	c := newClient()
	watch(cmd, client.UnitDetailInterval, func(ctx context.Context) error {
		unit, err := c.GetUnit(ctx, args[0])
		if err != nil {
			return err
		}
		posts, err := c.ListUnitPosts(ctx, unit.ID)
		if err != nil {
			return err
		}
		output(unitDetail{Unit: unit, Posts: posts}, func(w io.Writer) {
			renderUnit(w, unit)
			fmt.Fprintln(w)
			renderPosts(w, posts)
		})
		return nil
	})
}

func runUnitsMembers(cmd *cobra.Command, args []string) {
	ids, err := newClient().UnitMembers(cmd.Context(), args[0])
	if err != nil {
		exitErr("members", err)
	}
	output(ids, func(w io.Writer) {
		for _, id := range ids {
			fmt.Fprintln(w, id)
		}
	})
}

func runUnitsJoin(cmd *cobra.Command, args []string) {
	code, _ := cmd.Flags().GetString("invite-code")

	unit, err := newClient().JoinUnit(cmd.Context(), args[0], currentAgent(), code)
	if err != nil {
		exitErr("join", err)
	}
	output(unit, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s\n", styles.OK.Render("joined"), styles.Handle.Render("u/"+unit.Slug))
	})
}

func runUnitsInvite(cmd *cobra.Command, args []string) {
	code, err := newClient().RotateInviteCode(cmd.Context(), args[0])
	if err != nil {
		exitErr("invite code", err)
	}
	output(map[string]string{"inviteCode": code}, func(w io.Writer) {
		fmt.Fprintln(w, "invite code: "+styles.Title.Render(code))
	})
}

func runUnitsPost(cmd *cobra.Command, args []string) {
	req := postRequest(cmd, args[1:])

	post, err := newClient().CreateUnitPost(cmd.Context(), args[0], req)
	if err != nil {
		exitErr("unit post", err)
	}
	output(post, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s\n", styles.OK.Render("posted"), styles.Muted.Render(post.ID))
	})
}
