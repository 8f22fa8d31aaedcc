package mongo

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const opTimeout = 10 * time.Second

//IndexData keeps index creation data
type IndexData struct {
	Table  string
	Field  string
	Unique bool
}

func newIndexData(table string, field string, unique bool) IndexData {
	return IndexData{Table: table, Field: field, Unique: unique}
}

//SessionProvider connects and provides session for mongo DB
type SessionProvider struct {
	client  *mongo.Client
	URL     string
	indexes []IndexData
	m       sync.Mutex
}

//NewSessionProvider creates Mongo session provider, the connection is opened lazily
func NewSessionProvider(url string) (*SessionProvider, error) {
	if url == "" {
		return nil, errors.New("No Mongo url provided")
	}
	return &SessionProvider{URL: url, indexes: indexData}, nil
}

//Close disconnects from mongo
func (sp *SessionProvider) Close() {
	sp.m.Lock()
	defer sp.m.Unlock()
	if sp.client != nil {
		ctx, cancel := mongoContext(context.Background())
		defer cancel()
		cmdapp.LogIf(sp.client.Disconnect(ctx))
		sp.client = nil
	}
}

//NewSession creates mongo session
func (sp *SessionProvider) NewSession() (mongo.Session, error) {
	client, err := sp.getClient()
	if err != nil {
		return nil, err
	}
	return client.StartSession()
}

//Healthy checks mongo connection
func (sp *SessionProvider) Healthy() error {
	client, err := sp.getClient()
	if err != nil {
		return err
	}
	ctx, cancel := mongoContext(context.Background())
	defer cancel()
	return errors.Wrap(client.Ping(ctx, readpref.Primary()), "Can't ping mongo")
}

func (sp *SessionProvider) getClient() (*mongo.Client, error) {
	sp.m.Lock()
	defer sp.m.Unlock()

	if sp.client == nil {
		cmdapp.Log.Info("Dial mongo: " + hidePass(sp.URL))
		ctx, cancel := mongoContext(context.Background())
		defer cancel()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(sp.URL))
		if err != nil {
			return nil, errors.Wrap(err, "Can't dial to mongo")
		}
		if err := checkIndexes(ctx, client, sp.indexes); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		sp.client = client
	}
	return sp.client, nil
}

func checkIndexes(ctx context.Context, client *mongo.Client, indexes []IndexData) error {
	for _, index := range indexes {
		if err := checkIndex(ctx, client, index); err != nil {
			return errors.Wrap(err, "Can't create index: "+index.Table+":"+index.Field)
		}
	}
	return nil
}

func checkIndex(ctx context.Context, client *mongo.Client, indexData IndexData) error {
	c := client.Database(store).Collection(indexData.Table)
	_, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: indexData.Field, Value: 1}},
		Options: options.Index().SetUnique(indexData.Unique),
	})
	return err
}

func mongoContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

// sanitize drops the operator prefix so user input is never treated as a query operator
func sanitize(s string) string {
	return strings.TrimLeft(s, "$")
}

func hidePass(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		cmdapp.Log.Warn("Can't parse mongo url.")
		return ""
	}
	if u.User == nil {
		return u.String()
	}
	if _, ps := u.User.Password(); ps {
		u.User = url.UserPassword(u.User.Username(), "----")
	}
	return u.String()
}
