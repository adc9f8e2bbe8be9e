// Package mongo manages the MongoDB connection: environment-driven
// configuration, connect-with-retry for transient Atlas failures, sane pool
// defaults, and a health probe for orchestration.
//
// # Usage
//
//	cfg := mongo.Config{
//		ConnectionURL: "mongodb://localhost:27017",
//	}
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Disconnect(ctx)
//
//	db, _ := mongo.NewWithDatabase(ctx, cfg, "mydb")
//
//	health := mongo.Healthcheck(client)
//	if err := health(ctx); err != nil {
//		log.Println("mongo is unavailable:", err)
//	}
//
// Configuration comes entirely from environment variables (see Config), so
// credentials can live in a secret manager instead of config files. Failures
// are wrapped in package sentinel errors and match with errors.Is.
//
// Official driver docs: https://pkg.go.dev/go.mongodb.org/mongo-driver.
package mongo
