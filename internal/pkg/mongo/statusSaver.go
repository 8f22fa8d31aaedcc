package mongo

import (
	"context"
	"time"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/airenas/asrjobs/internal/pkg/status"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

//StatusSaver saves job status to mongo db
type StatusSaver struct {
	SessionProvider *SessionProvider
	now             func() time.Time
}

//NewStatusSaver creates StatusSaver instance
func NewStatusSaver(sessionProvider *SessionProvider) (*StatusSaver, error) {
	if sessionProvider == nil {
		return nil, errors.New("No session provider")
	}
	return &StatusSaver{SessionProvider: sessionProvider, now: time.Now}, nil
}

//Save upserts the job status
func (ss *StatusSaver) Save(ctx context.Context, jobName, taskToken string, st status.Status) error {
	cmdapp.Log.Debugf("Saving status %s: %s", jobName, status.Name(st))
	set := bson.M{"status": status.Name(st), "updated": ss.now()}
	if taskToken != "" {
		set["taskToken"] = taskToken
	}
	upd := bson.M{"$set": set}
	if st == status.Accepted {
		upd["$unset"] = bson.M{"error": ""}
	}
	return ss.update(ctx, jobName, upd)
}

//SaveError marks the job as failed
func (ss *StatusSaver) SaveError(ctx context.Context, jobName, errorStr string) error {
	cmdapp.Log.Debugf("Saving error %s: %s", jobName, errorStr)
	return ss.update(ctx, jobName, bson.M{"$set": bson.M{"status": status.Name(status.Error),
		"error": errorStr, "updated": ss.now()}})
}

func (ss *StatusSaver) update(ctx context.Context, jobName string, upd bson.M) error {
	ctx, cancel := mongoContext(ctx)
	defer cancel()

	session, err := ss.SessionProvider.NewSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(statusTable)
	_, err = c.UpdateOne(ctx, bson.M{"jobName": sanitize(jobName)}, upd, options.Update().SetUpsert(true))
	return errors.Wrapf(err, "Can't save status for %s", jobName)
}

//StatusProvider reads job status from mongo db
type StatusProvider struct {
	SessionProvider *SessionProvider
}

//NewStatusProvider creates StatusProvider instance
func NewStatusProvider(sessionProvider *SessionProvider) (*StatusProvider, error) {
	if sessionProvider == nil {
		return nil, errors.New("No session provider")
	}
	return &StatusProvider{SessionProvider: sessionProvider}, nil
}

//Get retrieves the job status, status.ErrNotFound for unknown job
func (sp *StatusProvider) Get(ctx context.Context, jobName string) (*status.Record, error) {
	ctx, cancel := mongoContext(ctx)
	defer cancel()

	session, err := sp.SessionProvider.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(statusTable)
	var res status.Record
	err = c.FindOne(ctx, bson.M{"jobName": sanitize(jobName)}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, status.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "Can't get status")
	}
	return &res, nil
}
