package model

import "time"

// Fan 粉丝关系（B 的粉丝是 A）冗余自 Follow，只镜像 status=follow 的边
type Fan struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"index:idx_fan_user;index:idx_fan_pair,unique;not null"`
	FanID     uint `gorm:"not null;index:idx_fan_pair,unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Fan) TableName() string { return "fans" }
