// Command admintoken prints a signed admin token for the /v1/admin API.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-booking/internal/auth"
	"github.com/iliyamo/theater-booking/internal/config"
	"github.com/iliyamo/theater-booking/internal/middleware"
)

func main() {
	sub := flag.String("sub", "admin", "token subject")
	role := flag.String("role", middleware.RoleAdmin, "role claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	tok, err := auth.NewAccessToken(config.LoadJWTSecret(), *sub, *role, *ttl)
	if err != nil {
		logrus.WithError(err).Fatal("failed to sign token")
	}
	fmt.Println(tok.Token)
	logrus.WithField("expires_at", tok.Exp.Format(time.RFC3339)).Info("token issued")
}
