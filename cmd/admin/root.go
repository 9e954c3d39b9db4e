package main

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ray-remotestate/restro/client"
	"github.com/ray-remotestate/restro/models"
)

type app struct {
	v      *viper.Viper
	client *client.Client
	policy models.TransitionPolicy
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "restro-admin",
		Short:         "Manage orders through the restro GraphQL API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.String("url", "", "GraphQL endpoint; skips discovery (env GRAPHQL_URL)")
	flags.Int("port", client.DefaultPort, "primary port to probe (env GRAPHQL_PORT)")
	flags.String("host", client.DefaultHost, "host to probe (env GRAPHQL_HOST)")
	flags.String("token", "", "bearer token (env RESTRO_TOKEN)")
	flags.String("log-level", "warn", "log level (env LOG_LEVEL)")
	flags.String("transitions", "permissive", "transition policy the server runs: permissive or strict (env ORDER_TRANSITIONS)")

	for key, flag := range map[string]string{
		"graphql_url":       "url",
		"graphql_port":      "port",
		"graphql_host":      "host",
		"restro_token":      "token",
		"log_level":         "log-level",
		"order_transitions": "transitions",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
		_ = a.v.BindEnv(key, strings.ToUpper(key))
	}

	root.AddCommand(newPingCmd(a), newLoginCmd(a), newOrdersCmd(a))
	return root
}

func (a *app) init() error {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}
	level, err := logrus.ParseLevel(a.v.GetString("log_level"))
	if err != nil {
		level = logrus.WarnLevel
	}
	logrus.SetLevel(level)

	policy, err := models.PolicyByName(a.v.GetString("order_transitions"))
	if err != nil {
		return err
	}
	a.policy = policy

	resolver := client.NewResolver()
	resolver.Override = a.v.GetString("graphql_url")
	resolver.Host = a.v.GetString("graphql_host")
	resolver.PrimaryPort = a.v.GetInt("graphql_port")

	a.client = client.New(
		client.WithResolver(resolver),
		client.WithToken(a.v.GetString("restro_token")),
	)
	return nil
}
