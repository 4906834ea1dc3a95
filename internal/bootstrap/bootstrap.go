package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	gcpkms "cloud.google.com/go/kms/apiv1"
	"firebase.google.com/go/v4/auth"
	"github.com/nats-io/nats.go"

	plaidclient "github.com/goalvault/savings-engine/internal/client/plaid"
	"github.com/goalvault/savings-engine/internal/config"
	"github.com/goalvault/savings-engine/pkg/logger"
)

type Bootstrap struct {
	Log          *slog.Logger
	Firestore    *firestore.Client
	Firebase     *auth.Client
	KMS          *gcpkms.KeyManagementClient
	NATS         *nats.Conn
	PlaidAdapter *plaidclient.Adapter
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = InitFirebase(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.KMS, err = gcpkms.NewKeyManagementClient(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.NATS, err = nats.Connect(cfg.NATSURL, nats.Name("savings-engine"))
	if err != nil {
		return bs, err
	}
	bs.PlaidAdapter = plaidclient.NewAdapter(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnvironment, cfg.GatewayTimeout)

	return bs, nil
}

// Close releases external connections. Call after the scheduler has drained
// so no in-flight rule loses its clients.
func (bs *Bootstrap) Close() {
	if bs.NATS != nil {
		bs.NATS.Drain()
	}
	if bs.KMS != nil {
		bs.KMS.Close()
	}
	if bs.Firestore != nil {
		bs.Firestore.Close()
	}
}
