package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoURIEnv names the variable that enables Mongo-backed tests.
const MongoURIEnv = "DIVVY_TEST_MONGO_URI"

// FirestoreEmulatorEnv is read by the Firestore SDK; tests against the
// emulator run only when it is set.
const FirestoreEmulatorEnv = "FIRESTORE_EMULATOR_HOST"

// TestContext returns a context with a timeout suitable for tests.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// SetupTestDB connects to the Mongo server named by DIVVY_TEST_MONGO_URI and
// returns a fresh database that is dropped when the test ends. The test is
// skipped when the variable is unset.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := strings.TrimSpace(os.Getenv(MongoURIEnv))
	if uri == "" {
		t.Skipf("%s not set; skipping Mongo test", MongoURIEnv)
	}

	ctx, cancel := TestContext()
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect to test mongo: %v", err)
	}

	name := fmt.Sprintf("divvy_test_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	db := client.Database(name)
	t.Cleanup(func() {
		ctx, cancel := TestContext()
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

// SetupTestStore returns a Mongo-backed store when DIVVY_TEST_MONGO_URI is
// set and an in-memory store otherwise.
func SetupTestStore(t *testing.T) docstore.Store {
	t.Helper()
	if strings.TrimSpace(os.Getenv(MongoURIEnv)) != "" {
		return docstore.NewMongo(SetupTestDB(t))
	}
	return docstore.NewMemory()
}

// SetupFirestore returns a store backed by the Firestore emulator named by
// FIRESTORE_EMULATOR_HOST, in a project of its own so tests never share
// data. The test is skipped when the variable is unset.
func SetupFirestore(t *testing.T) *docstore.Firestore {
	t.Helper()
	if strings.TrimSpace(os.Getenv(FirestoreEmulatorEnv)) == "" {
		t.Skipf("%s not set; skipping Firestore test", FirestoreEmulatorEnv)
	}

	ctx, cancel := TestContext()
	defer cancel()
	project := fmt.Sprintf("divvy-test-%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	fs, err := docstore.NewFirestore(ctx, project)
	if err != nil {
		t.Fatalf("connect to firestore emulator: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := TestContext()
		defer cancel()
		_ = fs.Close(ctx)
	})
	return fs
}
