package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/goalvault/savings-engine/infra/cloudrun"
	"github.com/goalvault/savings-engine/infra/docker"
	"github.com/goalvault/savings-engine/infra/firestore"
	"github.com/goalvault/savings-engine/infra/identity"
	"github.com/goalvault/savings-engine/infra/kms"
	"github.com/goalvault/savings-engine/infra/provider"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// enable identity platform for firebase token verification
		_, err = identity.SetupIdentity(ctx, prov)
		if err != nil {
			return err
		}

		// enable firestore, create the database and the engine's indexes
		err = firestore.SetupFirestore(ctx, prov)
		if err != nil {
			return err
		}

		// kms key for bank access token encryption
		_, err = kms.SetupKMS(ctx, prov)
		if err != nil {
			return err
		}
		keyName, err := kms.CreateKey(ctx, prov, "savings-engine", "bank-tokens")
		if err != nil {
			return err
		}

		// docker repo + the engine service itself
		repo, err := docker.CreateEngineRepo(ctx)
		if err != nil {
			return err
		}

		_, err = cloudrun.SetupCloudRun(ctx, prov, repo, keyName)
		if err != nil {
			return err
		}

		return nil
	})
}
