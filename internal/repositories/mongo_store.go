package repositories

import (
	"context"
	"errors"
	"time"

	"qc-tracker/backend/internal/apperrors"
	"qc-tracker/backend/internal/database"
	"qc-tracker/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	tasksCollection    = "qctasks"
	reportsCollection  = "qcreports"
	feedbackCollection = "qcfeedbacks"
	usersCollection    = "users"
)

type taskDocument struct {
	ID               primitive.ObjectID `bson:"_id"`
	Name             string             `bson:"name"`
	Description      string             `bson:"description"`
	Priority         string             `bson:"priority,omitempty"`
	Deadline         *time.Time         `bson:"deadline,omitempty"`
	AssignedTo       string             `bson:"assignedTo"`
	Status           string             `bson:"status"`
	QCStatus         string             `bson:"qcStatus"`
	QCRemarks        string             `bson:"qcRemarks"`
	RevisionDeadline *time.Time         `bson:"revisionDeadline,omitempty"`
	Attachments      []string           `bson:"attachments"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

type reportDocument struct {
	ID            primitive.ObjectID `bson:"_id"`
	TaskID        primitive.ObjectID `bson:"taskId"`
	QCRemarks     string             `bson:"qcRemarks"`
	Status        string             `bson:"status"`
	GeneratedDate time.Time          `bson:"generatedDate"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

type feedbackDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	TaskID    primitive.ObjectID `bson:"taskId"`
	QCRemarks string             `bson:"qcRemarks"`
	EditorID  string             `bson:"editorId"`
	Timestamp time.Time          `bson:"timestamp"`
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// MongoStore keeps QC records in MongoDB, one collection per record type.
type MongoStore struct {
	conn     *database.MongoConnection
	tasks    *mongoTaskRepository
	reports  *mongoReportRepository
	feedback *mongoFeedbackRepository
	users    *mongoUserRepository
}

func NewMongoStore(conn *database.MongoConnection) *MongoStore {
	db := conn.Database
	return &MongoStore{
		conn:     conn,
		tasks:    &mongoTaskRepository{collection: db.Collection(tasksCollection)},
		reports:  &mongoReportRepository{collection: db.Collection(reportsCollection)},
		feedback: &mongoFeedbackRepository{collection: db.Collection(feedbackCollection)},
		users:    &mongoUserRepository{collection: db.Collection(usersCollection)},
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		collection *mongo.Collection
		model      mongo.IndexModel
	}{
		{s.users.collection, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.reports.collection, mongo.IndexModel{Keys: bson.D{{Key: "taskId", Value: 1}}}},
		{s.reports.collection, mongo.IndexModel{Keys: bson.D{{Key: "generatedDate", Value: -1}}}},
		{s.feedback.collection, mongo.IndexModel{Keys: bson.D{{Key: "taskId", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.collection.Indexes().CreateOne(ctx, idx.model); err != nil {
			return apperrors.Store("create index", err)
		}
	}
	return nil
}

func (s *MongoStore) Tasks() TaskRepository          { return s.tasks }
func (s *MongoStore) Reports() ReportRepository      { return s.reports }
func (s *MongoStore) Feedback() FeedbackRepository   { return s.feedback }
func (s *MongoStore) Users() UserRepository          { return s.users }
func (s *MongoStore) Ping(ctx context.Context) error { return s.conn.Ping(ctx) }
func (s *MongoStore) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}
func (s *MongoStore) Name() string { return "mongodb" }

func mongoErr(op, resource string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperrors.NotFound(resource)
	case mongo.IsDuplicateKeyError(err):
		return apperrors.ErrDuplicate
	default:
		return apperrors.Store(op, err)
	}
}

func objectID(resource, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.InvalidID(resource, id)
	}
	return oid, nil
}

type mongoTaskRepository struct {
	collection *mongo.Collection
}

func (d *taskDocument) toModel() *models.Task {
	attachments := d.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return &models.Task{
		ID:               d.ID.Hex(),
		Name:             d.Name,
		Description:      d.Description,
		Priority:         models.Priority(d.Priority),
		Deadline:         d.Deadline,
		AssignedTo:       d.AssignedTo,
		Status:           models.WorkStatus(d.Status),
		QCStatus:         models.QCStatus(d.QCStatus),
		QCRemarks:        d.QCRemarks,
		RevisionDeadline: d.RevisionDeadline,
		Attachments:      attachments,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func (r *mongoTaskRepository) Create(ctx context.Context, task *models.Task) error {
	oid, err := objectID("task", task.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	task.CreatedAt, task.UpdatedAt = now, now
	if task.Attachments == nil {
		task.Attachments = []string{}
	}

	doc := taskDocument{
		ID:               oid,
		Name:             task.Name,
		Description:      task.Description,
		Priority:         string(task.Priority),
		Deadline:         task.Deadline,
		AssignedTo:       task.AssignedTo,
		Status:           string(task.Status),
		QCStatus:         string(task.QCStatus),
		QCRemarks:        task.QCRemarks,
		RevisionDeadline: task.RevisionDeadline,
		Attachments:      task.Attachments,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err = r.collection.InsertOne(ctx, doc)
	return mongoErr("insert task", "task", err)
}

func (r *mongoTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	oid, err := objectID("task", id)
	if err != nil {
		return nil, err
	}
	var doc taskDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mongoErr("find task", "task", err)
	}
	return doc.toModel(), nil
}

func (r *mongoTaskRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*models.Task, error) {
	out := make(map[string]*models.Task, len(ids))
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return out, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, mongoErr("find tasks", "task", err)
	}
	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mongoErr("decode tasks", "task", err)
	}
	for i := range docs {
		task := docs[i].toModel()
		out[task.ID] = task
	}
	return out, nil
}

func (r *mongoTaskRepository) List(ctx context.Context) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mongoErr("list tasks", "task", err)
	}
	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mongoErr("decode tasks", "task", err)
	}
	tasks := make([]models.Task, 0, len(docs))
	for i := range docs {
		tasks = append(tasks, *docs[i].toModel())
	}
	return tasks, nil
}

func (r *mongoTaskRepository) UpdateStatus(ctx context.Context, id string, update models.TaskStatusUpdate) (*models.Task, error) {
	oid, err := objectID("task", id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.QCStatus != nil {
		set["qcStatus"] = string(*update.QCStatus)
	}
	if update.Status != nil {
		set["status"] = string(*update.Status)
	}
	if update.QCRemarks != nil {
		set["qcRemarks"] = *update.QCRemarks
	}
	if update.RevisionDeadline != nil {
		set["revisionDeadline"] = *update.RevisionDeadline
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		return nil, mongoErr("update task", "task", err)
	}
	return doc.toModel(), nil
}

func (r *mongoTaskRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID("task", id)
	if err != nil {
		return err
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mongoErr("delete task", "task", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.NotFound("task")
	}
	return nil
}

type mongoReportRepository struct {
	collection *mongo.Collection
}

func (d *reportDocument) toModel() models.Report {
	return models.Report{
		ID:            d.ID.Hex(),
		TaskID:        d.TaskID.Hex(),
		QCRemarks:     d.QCRemarks,
		Status:        models.ReportStatus(d.Status),
		GeneratedDate: d.GeneratedDate,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (r *mongoReportRepository) find(ctx context.Context, filter bson.M) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "generatedDate", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, mongoErr("find reports", "report", err)
	}
	var docs []reportDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mongoErr("decode reports", "report", err)
	}
	reports := make([]models.Report, 0, len(docs))
	for i := range docs {
		reports = append(reports, docs[i].toModel())
	}
	return reports, nil
}

func (r *mongoReportRepository) Create(ctx context.Context, report *models.Report) error {
	oid, err := objectID("report", report.ID)
	if err != nil {
		return err
	}
	taskOID, err := objectID("task", report.TaskID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	report.CreatedAt, report.UpdatedAt = now, now

	_, err = r.collection.InsertOne(ctx, reportDocument{
		ID:            oid,
		TaskID:        taskOID,
		QCRemarks:     report.QCRemarks,
		Status:        string(report.Status),
		GeneratedDate: report.GeneratedDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	return mongoErr("insert report", "report", err)
}

func (r *mongoReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	oid, err := objectID("report", id)
	if err != nil {
		return nil, err
	}
	var doc reportDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mongoErr("find report", "report", err)
	}
	report := doc.toModel()
	return &report, nil
}

func (r *mongoReportRepository) FindByTask(ctx context.Context, taskID string) ([]models.Report, error) {
	oid, err := objectID("task", taskID)
	if err != nil {
		return nil, err
	}
	return r.find(ctx, bson.M{"taskId": oid})
}

func (r *mongoReportRepository) List(ctx context.Context) ([]models.Report, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoReportRepository) CountByTaskAndStatus(ctx context.Context, taskID string, status models.ReportStatus) (int64, error) {
	oid, err := objectID("task", taskID)
	if err != nil {
		return 0, err
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"taskId": oid, "status": string(status)})
	if err != nil {
		return 0, mongoErr("count reports", "report", err)
	}
	return count, nil
}

type mongoFeedbackRepository struct {
	collection *mongo.Collection
}

func (d *feedbackDocument) toModel() models.Feedback {
	return models.Feedback{
		ID:        d.ID.Hex(),
		TaskID:    d.TaskID.Hex(),
		QCRemarks: d.QCRemarks,
		EditorID:  d.EditorID,
		Timestamp: d.Timestamp,
	}
}

func (r *mongoFeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	oid, err := objectID("feedback", feedback.ID)
	if err != nil {
		return err
	}
	taskOID, err := objectID("task", feedback.TaskID)
	if err != nil {
		return err
	}
	_, err = r.collection.InsertOne(ctx, feedbackDocument{
		ID:        oid,
		TaskID:    taskOID,
		QCRemarks: feedback.QCRemarks,
		EditorID:  feedback.EditorID,
		Timestamp: feedback.Timestamp,
	})
	return mongoErr("insert feedback", "feedback", err)
}

func (r *mongoFeedbackRepository) FindByID(ctx context.Context, id string) (*models.Feedback, error) {
	oid, err := objectID("feedback", id)
	if err != nil {
		return nil, err
	}
	var doc feedbackDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mongoErr("find feedback", "feedback", err)
	}
	feedback := doc.toModel()
	return &feedback, nil
}

func (r *mongoFeedbackRepository) FindByTask(ctx context.Context, taskID string) ([]models.Feedback, error) {
	oid, err := objectID("task", taskID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"taskId": oid}, opts)
	if err != nil {
		return nil, mongoErr("find feedback", "feedback", err)
	}
	var docs []feedbackDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mongoErr("decode feedback", "feedback", err)
	}
	out := make([]models.Feedback, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}

func (r *mongoFeedbackRepository) Update(ctx context.Context, id, qcRemarks, editorID string) (*models.Feedback, error) {
	oid, err := objectID("feedback", id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"qcRemarks": qcRemarks, "editorId": editorID}}
	var doc feedbackDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, mongoErr("update feedback", "feedback", err)
	}
	feedback := doc.toModel()
	return &feedback, nil
}

func (r *mongoFeedbackRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID("feedback", id)
	if err != nil {
		return err
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mongoErr("delete feedback", "feedback", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.NotFound("feedback")
	}
	return nil
}

type mongoUserRepository struct {
	collection *mongo.Collection
}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) error {
	oid, err := objectID("user", user.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	_, err = r.collection.InsertOne(ctx, userDocument{
		ID:           oid,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return mongoErr("insert user", "user", err)
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		return nil, mongoErr("find user", "user", err)
	}
	return &models.User{
		ID:           doc.ID.Hex(),
		Name:         doc.Name,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Role:         models.Role(doc.Role),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
