package model

import "time"

// GroupName is one of the fixed user groups seeded by the migration.
type GroupName string

const (
    GroupUser      GroupName = "USER"
    GroupModerator GroupName = "MODERATOR"
    GroupAdmin     GroupName = "ADMIN"
)

// User represents a row of the `users` table joined with its group name.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address, compared exactly as stored.
//  PasswordHash – bcrypt hashed password.
//  IsActive     – false until the activation token is redeemed.
//  GroupID      – foreign key into user_groups.
//  Group        – name of the referenced group.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    IsActive     bool      // users.is_active
    GroupID      uint8     // users.group_id
    Group        GroupName // user_groups.name
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// UserGroup represents a row in the `user_groups` table.
type UserGroup struct {
    ID   uint8     // user_groups.id
    Name GroupName // user_groups.name
}
