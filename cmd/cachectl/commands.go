package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/cachekit"
	"github.com/unkn0wn-root/cachekit/provider/sqlstore"
)

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCache(cmd.Context(), func(c cachekit.Cache) error {
				v, ok, err := c.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return errors.Newf("%s: not found", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
}

func (a *app) setCmd() *cobra.Command {
	var (
		ttl int
		nx  bool
	)
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store VALUE under KEY",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCache(cmd.Context(), func(c cachekit.Cache) error {
				ok, err := c.Set(cmd.Context(), args[0], args[1], ttl, !nx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ok)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&ttl, "ttl", 3600, "expiration in seconds")
	cmd.Flags().BoolVar(&nx, "nx", false, "only write when KEY holds no live value")
	return cmd
}

func (a *app) incrCmd() *cobra.Command {
	var by int64
	cmd := &cobra.Command{
		Use:   "incr KEY",
		Short: "Add to the counter stored under KEY and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCache(cmd.Context(), func(c cachekit.Cache) error {
				n, err := c.IncrementBy(cmd.Context(), args[0], by)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&by, "by", 1, "amount to add, may be negative")
	return cmd
}

func (a *app) delCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del KEY...",
		Short: "Delete one or more keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCache(cmd.Context(), func(c cachekit.Cache) error {
				ok, err := c.DeleteMany(cmd.Context(), args)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ok)
				return nil
			})
		},
	}
}

func (a *app) expireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire KEY SECONDS",
		Short: "Apply a new expiration to KEY",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			secs, err := strconv.Atoi(args[1])
			if err != nil {
				return cachekit.InvalidArgument("seconds %q is not an integer", args[1])
			}
			return a.withCache(cmd.Context(), func(c cachekit.Cache) error {
				ok, err := c.ExpireKey(cmd.Context(), args[0], secs)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ok)
				return nil
			})
		},
	}
}

type sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

func (a *app) sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired rows from the relational cache table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withCache(cmd.Context(), func(c cachekit.Cache) error {
				s, ok := c.(sweeper)
				if !ok {
					return &cachekit.NotSupportedError{Provider: "redis", Capability: "sweeping", Suggested: "sql"}
				}
				n, err := s.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func (a *app) ddlCmd() *cobra.Command {
	var (
		driver string
		apply  bool
	)
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print, or apply with --apply, the cache table DDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.options()
			if err != nil {
				return err
			}
			sqlOpts := opts.SQL
			if driver != "" {
				sqlOpts.Driver = driver
			}
			sqlOpts = sqlOpts.WithDefaults()
			if err := sqlOpts.Validate(); err != nil {
				return err
			}

			if !apply {
				fmt.Fprintln(cmd.OutOrStdout(), sqlstore.CreateTableScript(sqlOpts.Driver, sqlOpts.SchemaName, sqlOpts.TableName))
				return nil
			}
			return applyDDL(cmd.Context(), sqlOpts)
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "sqlserver, postgres or sqlite; defaults to sql.driver")
	cmd.Flags().BoolVar(&apply, "apply", false, "execute the statements against sql.connection_string")
	return cmd
}

func applyDDL(ctx context.Context, o cachekit.SQLOptions) error {
	if o.ConnectionString == "" {
		return cachekit.InvalidArgument("sql: connection string must be set to apply DDL")
	}
	db, err := sqlx.Open(o.Driver, o.ConnectionString)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stmt := range sqlstore.CreateTableStatements(o.Driver, o.SchemaName, o.TableName) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
