package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/aiesec-vn/ogvhub/core/profile"
)

// adminActor stands in for the operator running the CLI.
var adminActor = profile.Profile{ID: "system", Role: profile.RoleAdmin}

func (cli *commandLine) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage dashboard profiles",
	}

	var np profile.NewProfile
	var lc string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a profile, or update the one with the same email (and reactivate it)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lc != "" {
				np.LC = &lc
			}
			return cli.addProfile(cmd.Context(), np)
		},
	}
	add.Flags().StringVar(&np.ID, "id", "", "identity provider subject (generated if empty)")
	add.Flags().StringVar(&np.Email, "email", "", "email address")
	add.Flags().StringVar(&np.FullName, "name", "", "full name")
	add.Flags().StringVar(&np.Role, "role", profile.RoleMember, "admin, lc_manager or member")
	add.Flags().StringVar(&lc, "lc", "", "LC code; required unless admin")
	_ = add.MarkFlagRequired("email")
	_ = add.MarkFlagRequired("name")

	cmd.AddCommand(add)
	return cmd
}

// addProfile updates or creates a profile.Profile
func (cli *commandLine) addProfile(ctx context.Context, np profile.NewProfile) error {
	if err := np.Validate(cli.svcs.Validate); err != nil {
		return err
	}

	p, err := cli.svcs.Profile.GetByEmail(ctx, np.Email)
	switch {
	case errors.Cause(err) == profile.ErrNotFound:
		if p, err = cli.svcs.Profile.Create(ctx, np); err != nil {
			return err
		}
		cli.printf("created profile %s (%s)\n", p.ID, p.Email)
		return nil
	case err != nil:
		return err
	}

	active := true
	up := profile.UpdateProfile{FullName: np.FullName, Role: np.Role, LC: np.LC, IsActive: &active}
	if err = up.Validate(p, cli.svcs.Validate); err != nil {
		return err
	}
	if p, err = cli.svcs.Profile.Update(ctx, p.ID, up, adminActor); err != nil {
		return err
	}
	cli.printf("updated profile %s (%s)\n", p.ID, p.Email)
	return nil
}
