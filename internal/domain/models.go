// Package domain defines the persistence models of the community bot store:
// modmail threads, suggestions, role configuration, moderation records, course
// group exchanges, and reminders. These types are mapped with GORM.
//
// Table and column names are part of the on-disk contract shared with existing
// databases, so every field names its column explicitly.
package domain

// Modmail is a private message sent to the moderators, keyed by the id of the
// message that opened it.
//
// Fields:
//   - ID: message/thread identifier (primary key).
//   - Author: the user that submitted the modmail.
//   - StatusID: lifecycle state; defaults to ModmailOpen.
//   - Timestamp: time of submission.
type Modmail struct {
	ID        string        `json:"id"        gorm:"column:ID;type:varchar(64);primaryKey"`
	Author    string        `json:"author"    gorm:"column:Author;type:varchar(255);not null"`
	StatusID  ModmailStatus `json:"status_id" gorm:"column:StatusID;type:smallint;not null;default:1;index:idx_modmail_status"`
	Timestamp Timestamp     `json:"timestamp" gorm:"column:Timestamp;type:varchar(32)"`
}

// TableName returns the database table name for Modmail.
func (Modmail) TableName() string { return "Modmail" }

// Suggestion is a member suggestion. Its ID is assigned by the store; the
// MessageID is filled in once the suggestion embed has been posted.
type Suggestion struct {
	ID        int64            `json:"id"                   gorm:"column:ID;primaryKey;autoIncrement:false"`
	MessageID *string          `json:"message_id,omitempty" gorm:"column:MessageID;type:varchar(64);index:idx_suggestion_message"`
	AuthorID  string           `json:"author_id"            gorm:"column:AuthorID;type:varchar(64);not null"`
	StatusID  SuggestionStatus `json:"status_id"            gorm:"column:StatusID;type:smallint;not null;default:0;index:idx_suggestion_status"`
	Timestamp Timestamp        `json:"timestamp"            gorm:"column:Timestamp;type:varchar(32)"`
}

// TableName returns the database table name for Suggestion.
func (Suggestion) TableName() string { return "Suggestion" }

// ModuleRole marks a role as selectable for module assignment. Presence of a
// row is the whole payload.
type ModuleRole struct {
	RoleID string `json:"role_id" gorm:"column:RoleID;type:varchar(64);primaryKey"`
}

// TableName returns the database table name for ModuleRole.
func (ModuleRole) TableName() string { return "ModuleRole" }

// ReactionRole maps a reaction on a message to a role. A message may carry
// many mappings, one per emoji.
type ReactionRole struct {
	MessageID string `json:"message_id" gorm:"column:MessageID;type:varchar(64);primaryKey"`
	Emoji     string `json:"emoji"      gorm:"column:Emoji;type:varchar(64);primaryKey"`
	RoleID    string `json:"role_id"    gorm:"column:RoleID;type:varchar(64);not null"`
}

// TableName returns the database table name for ReactionRole.
func (ReactionRole) TableName() string { return "ReactionRole" }

// ReactionRoleUniquenessGroup marks the reaction roles of a message as
// mutually exclusive.
type ReactionRoleUniquenessGroup struct {
	MessageID string `json:"message_id" gorm:"column:MessageID;type:varchar(64);primaryKey"`
}

// TableName returns the database table name for ReactionRoleUniquenessGroup.
func (ReactionRoleUniquenessGroup) TableName() string { return "ReactionRoleUniquenessGroup" }

// MemberWarning is a moderator warning issued to a member.
type MemberWarning struct {
	ID        int64     `json:"id"               gorm:"column:ID;primaryKey;autoIncrement:false"`
	UserID    string    `json:"user_id"          gorm:"column:UserID;type:varchar(64);not null;index:idx_member_warning_user"`
	Timestamp Timestamp `json:"timestamp"        gorm:"column:Timestamp;type:varchar(32)"`
	Reason    *string   `json:"reason,omitempty" gorm:"column:Reason;type:text"`
}

// TableName returns the database table name for MemberWarning.
func (MemberWarning) TableName() string { return "MemberWarning" }

// GroupRequest is one group a member would accept in exchange for the group
// they offer in the same course. A member cannot request the same group of a
// course twice.
type GroupRequest struct {
	ID      int64  `json:"id"       gorm:"column:ID;primaryKey;autoIncrement:false"`
	UserID  string `json:"user_id"  gorm:"column:UserId;type:varchar(64);not null;uniqueIndex:ux_group_request,priority:1"`
	Course  string `json:"course"   gorm:"column:Course;type:varchar(64);not null;uniqueIndex:ux_group_request,priority:2"`
	GroupNr int    `json:"group_nr" gorm:"column:GroupNr;not null;uniqueIndex:ux_group_request,priority:3"`
}

// TableName returns the database table name for GroupRequest.
func (GroupRequest) TableName() string { return "GroupRequest" }

// GroupOffer is the group a member gives up in a course. A member holds at
// most one offer per course.
type GroupOffer struct {
	ID        int64   `json:"id"                   gorm:"column:ID;primaryKey;autoIncrement:false"`
	UserID    string  `json:"user_id"              gorm:"column:UserId;type:varchar(64);not null;uniqueIndex:ux_group_offer,priority:1"`
	Course    string  `json:"course"               gorm:"column:Course;type:varchar(64);not null;uniqueIndex:ux_group_offer,priority:2"`
	GroupNr   int     `json:"group_nr"             gorm:"column:GroupNr;not null"`
	MessageID *string `json:"message_id,omitempty" gorm:"column:MessageId;type:varchar(64)"`
}

// TableName returns the database table name for GroupOffer.
func (GroupOffer) TableName() string { return "GroupOffer" }

// BotOnlyChannel marks a channel as restricted to bot commands.
type BotOnlyChannel struct {
	ChannelID string `json:"channel_id" gorm:"column:ChannelID;type:varchar(64);primaryKey"`
}

// TableName returns the database table name for BotOnlyChannel.
func (BotOnlyChannel) TableName() string { return "BotOnlyChannel" }

// MemberNameHistory records a name a member used until Timestamp.
type MemberNameHistory struct {
	UserID    string    `json:"user_id"   gorm:"column:UserID;type:varchar(64);primaryKey;not null"`
	Name      string    `json:"name"      gorm:"column:Name;type:varchar(255);not null"`
	Timestamp Timestamp `json:"timestamp" gorm:"column:Timestamp;type:varchar(32);primaryKey;not null"`
}

// TableName returns the database table name for MemberNameHistory.
func (MemberNameHistory) TableName() string { return "MemberNameHistory" }

// RemindmeJob is a scheduled reminder. Subscribers are stored as
// RemindmeUserReminder rows.
//
// Fields:
//   - JobID: UUID of the job, shared with the dispatcher.
//   - Timestamp: when the reminder is due.
//   - Message: reminder text.
//   - BotMsgID: message the bot posted when the reminder was created, if any.
type RemindmeJob struct {
	JobID     string    `json:"job_id"               gorm:"column:JobID;type:varchar(36);primaryKey"`
	Timestamp Timestamp `json:"timestamp"            gorm:"column:Timestamp;type:varchar(32);index:idx_remindme_jobs_due"`
	Message   string    `json:"message"              gorm:"column:Message;type:text;not null"`
	BotMsgID  *string   `json:"bot_msg_id,omitempty" gorm:"column:BotMsgID;type:varchar(64)"`

	Reminders []RemindmeUserReminder `json:"-" gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for RemindmeJob.
func (RemindmeJob) TableName() string { return "RemindmeJobs" }

// RemindmeUserReminder subscribes a user to a reminder job. Many rows may
// reference the same job, at most one per user.
//
// The foreign key, declared on RemindmeJob.Reminders, is ON DELETE RESTRICT:
// removing a job that still has subscribers fails unless the subscriptions
// are removed first.
type RemindmeUserReminder struct {
	ID     int64  `json:"id"      gorm:"column:ID;primaryKey;autoIncrement:false"`
	JobID  string `json:"job_id"  gorm:"column:JobID;type:varchar(36);not null;uniqueIndex:ux_remindme_subscription,priority:1"`
	UserID string `json:"user_id" gorm:"column:UserID;type:varchar(64);not null;uniqueIndex:ux_remindme_subscription,priority:2;index:idx_remindme_user_reminders_user"`
}

// TableName returns the database table name for RemindmeUserReminder.
func (RemindmeUserReminder) TableName() string { return "RemindmeUserReminders" }

// IDSequence holds the last identifier handed out for a generated-ID table.
type IDSequence struct {
	Name string `gorm:"column:name;type:varchar(64);primaryKey"`
	Last int64  `gorm:"column:last;not null"`
}

// TableName returns the database table name for IDSequence.
func (IDSequence) TableName() string { return "id_sequences" }

// Sequence names used with IDSequence, one per table with a generated ID.
const (
	SeqSuggestion           = "Suggestion"
	SeqMemberWarning        = "MemberWarning"
	SeqGroupRequest         = "GroupRequest"
	SeqGroupOffer           = "GroupOffer"
	SeqRemindmeUserReminder = "RemindmeUserReminders"
)

// All returns every model managed by the store, in migration order.
func All() []any {
	return []any{
		&IDSequence{},
		&Modmail{},
		&Suggestion{},
		&ModuleRole{},
		&ReactionRole{},
		&ReactionRoleUniquenessGroup{},
		&MemberWarning{},
		&GroupRequest{},
		&GroupOffer{},
		&BotOnlyChannel{},
		&MemberNameHistory{},
		&RemindmeJob{},
		&RemindmeUserReminder{},
	}
}
