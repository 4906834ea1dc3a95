package cloudrun

import (
	"fmt"

	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/artifactregistry"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/cloudrunv2"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// SetupCloudRun deploys the engine as a single always-on instance. The
// scheduler assumes exactly one owner of the cron triggers, so scaling is
// pinned to one; CPU stays allocated between requests because the triggers
// fire without inbound traffic.
func SetupCloudRun(
	ctx *pulumi.Context,
	prov *gcp.Provider,
	repo *artifactregistry.Repository,
	kmsKeyName pulumi.StringOutput,
) (*cloudrunv2.Service, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")

	engineCfg := config.New(ctx, "engine")
	image := engineCfg.Require("image")
	natsURL := engineCfg.Require("natsUrl")
	plaidEnv := engineCfg.Get("plaidEnvironment")
	if plaidEnv == "" {
		plaidEnv = "sandbox"
	}

	sa, err := serviceaccount.NewAccount(ctx, "engineServiceAccount", &serviceaccount.AccountArgs{
		AccountId:   pulumi.String("savings-engine"),
		DisplayName: pulumi.String("Savings engine runtime"),
	}, pulumi.Provider(prov))
	if err != nil {
		return nil, err
	}

	roles := map[string]string{
		"engineDatastoreUser": "roles/datastore.user",
		"engineKmsUser":       "roles/cloudkms.cryptoKeyEncrypterDecrypter",
		"engineTokenVerifier": "roles/firebaseauth.viewer",
	}
	for name, role := range roles {
		_, err = projects.NewIAMMember(ctx, name, &projects.IAMMemberArgs{
			Project: pulumi.String(projectID),
			Role:    pulumi.String(role),
			Member: sa.Email.ApplyT(func(email string) string {
				return fmt.Sprintf("serviceAccount:%s", email)
			}).(pulumi.StringOutput),
		}, pulumi.Provider(prov))
		if err != nil {
			return nil, err
		}
	}

	return cloudrunv2.NewService(ctx, "engineService", &cloudrunv2.ServiceArgs{
		Name:     pulumi.String("savings-engine"),
		Location: pulumi.String(region),
		Template: &cloudrunv2.ServiceTemplateArgs{
			ServiceAccount: sa.Email,
			Scaling: &cloudrunv2.ServiceTemplateScalingArgs{
				MinInstanceCount: pulumi.Int(1),
				MaxInstanceCount: pulumi.Int(1),
			},
			Containers: cloudrunv2.ServiceTemplateContainerArray{
				&cloudrunv2.ServiceTemplateContainerArgs{
					Image: pulumi.String(image),
					Envs: cloudrunv2.ServiceTemplateContainerEnvArray{
						&cloudrunv2.ServiceTemplateContainerEnvArgs{
							Name:  pulumi.String("PROJECTID"),
							Value: pulumi.String(projectID),
						},
						&cloudrunv2.ServiceTemplateContainerEnvArgs{
							Name:  pulumi.String("KMSKEYNAME"),
							Value: kmsKeyName,
						},
						&cloudrunv2.ServiceTemplateContainerEnvArgs{
							Name:  pulumi.String("NATSURL"),
							Value: pulumi.String(natsURL),
						},
						&cloudrunv2.ServiceTemplateContainerEnvArgs{
							Name:  pulumi.String("PLAIDENVIRONMENT"),
							Value: pulumi.String(plaidEnv),
						},
					},
				},
			},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn([]pulumi.Resource{repo}),
	)
}
