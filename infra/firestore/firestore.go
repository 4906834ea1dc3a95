package firestore

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/firestore"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

func SetupFirestore(ctx *pulumi.Context, prov *gcp.Provider) error {
	svc, err := enableFirestore(ctx, prov)
	if err != nil {
		return err
	}

	if err := createDatabase(ctx, prov, svc); err != nil {
		return err
	}

	// The engine selects rules and goals across users with collection
	// group queries; Firestore needs explicit indexes for those.
	return createCollectionGroupIndexes(ctx, prov, svc)
}

func enableFirestore(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	return projects.NewService(ctx, "firestore", &projects.ServiceArgs{
		Service: pulumi.String("firestore.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
}

func createDatabase(ctx *pulumi.Context, prov *gcp.Provider, res ...pulumi.Resource) error {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")

	_, err := firestore.NewDatabase(ctx, "firestoreDatabase", &firestore.DatabaseArgs{
		Project:    pulumi.String(projectID),
		LocationId: pulumi.String(region),
		Type:       pulumi.String("FIRESTORE_NATIVE"),
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
	return err
}

func createCollectionGroupIndexes(ctx *pulumi.Context, prov *gcp.Provider, res ...pulumi.Resource) error {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")

	// rules: type + params.cadence + active (cadence batches) and
	// type + active (type batches).
	_, err := firestore.NewIndex(ctx, "rulesByCadenceIndex", &firestore.IndexArgs{
		Project:    pulumi.String(projectID),
		Collection: pulumi.String("rules"),
		QueryScope: pulumi.String("COLLECTION_GROUP"),
		Fields: firestore.IndexFieldArray{
			&firestore.IndexFieldArgs{FieldPath: pulumi.String("type"), Order: pulumi.String("ASCENDING")},
			&firestore.IndexFieldArgs{FieldPath: pulumi.String("params.cadence"), Order: pulumi.String("ASCENDING")},
			&firestore.IndexFieldArgs{FieldPath: pulumi.String("active"), Order: pulumi.String("ASCENDING")},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
	if err != nil {
		return err
	}

	_, err = firestore.NewIndex(ctx, "rulesByTypeIndex", &firestore.IndexArgs{
		Project:    pulumi.String(projectID),
		Collection: pulumi.String("rules"),
		QueryScope: pulumi.String("COLLECTION_GROUP"),
		Fields: firestore.IndexFieldArray{
			&firestore.IndexFieldArgs{FieldPath: pulumi.String("type"), Order: pulumi.String("ASCENDING")},
			&firestore.IndexFieldArgs{FieldPath: pulumi.String("active"), Order: pulumi.String("ASCENDING")},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
	if err != nil {
		return err
	}

	// transactions: goal + status + createdAt for the reporting sums.
	_, err = firestore.NewIndex(ctx, "transactionsByGoalStatusIndex", &firestore.IndexArgs{
		Project:    pulumi.String(projectID),
		Collection: pulumi.String("transactions"),
		QueryScope: pulumi.String("COLLECTION"),
		Fields: firestore.IndexFieldArray{
			&firestore.IndexFieldArgs{FieldPath: pulumi.String("goalId"), Order: pulumi.String("ASCENDING")},
			&firestore.IndexFieldArgs{FieldPath: pulumi.String("status"), Order: pulumi.String("ASCENDING")},
			&firestore.IndexFieldArgs{FieldPath: pulumi.String("createdAt"), Order: pulumi.String("ASCENDING")},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
	return err
}
