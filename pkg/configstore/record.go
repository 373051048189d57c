package configstore

import (
	"fmt"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/pnpfeeder/pkg/feeder"
	"github.com/robotalks/pnpfeeder/pkg/gcode"
)

// Record is the serialized form of a feeder config.
// Values are decimal strings so they round-trip exactly.
type Record struct {
	Index             uint32 `protobuf:"varint,1,opt,name=index,proto3" json:"index,omitempty"`
	AdvancedAngle     string `protobuf:"bytes,2,opt,name=advanced_angle,proto3" json:"advanced_angle,omitempty"`
	HalfAdvancedAngle string `protobuf:"bytes,3,opt,name=half_advanced_angle,proto3" json:"half_advanced_angle,omitempty"`
	RetractAngle      string `protobuf:"bytes,4,opt,name=retract_angle,proto3" json:"retract_angle,omitempty"`
	FeedLength        string `protobuf:"bytes,5,opt,name=feed_length,proto3" json:"feed_length,omitempty"`
	SettleTime        uint32 `protobuf:"varint,6,opt,name=settle_time,proto3" json:"settle_time,omitempty"`
	Pwm0              string `protobuf:"bytes,7,opt,name=pwm_0,proto3" json:"pwm_0,omitempty"`
	Pwm180            string `protobuf:"bytes,8,opt,name=pwm_180,proto3" json:"pwm_180,omitempty"`
	IgnoreFeedbackPin bool   `protobuf:"varint,9,opt,name=ignore_feedback_pin,proto3" json:"ignore_feedback_pin,omitempty"`
	AlwaysRetract     bool   `protobuf:"varint,10,opt,name=always_retract,proto3" json:"always_retract,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Record) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Record) Reset() { *m = Record{} }

// String implements proto.Message.
func (m *Record) String() string { return proto.CompactTextString(m) }

// NewRecord converts a config into a Record.
func NewRecord(index int, config feeder.Config) *Record {
	return &Record{
		Index:             uint32(index),
		AdvancedAngle:     config.AdvancedAngle.String(),
		HalfAdvancedAngle: config.HalfAdvancedAngle.String(),
		RetractAngle:      config.RetractAngle.String(),
		FeedLength:        config.FeedLength.String(),
		SettleTime:        config.SettleTime,
		Pwm0:              config.Pwm0.String(),
		Pwm180:            config.Pwm180.String(),
		IgnoreFeedbackPin: config.IgnoreFeedbackPin,
		AlwaysRetract:     config.AlwaysRetract,
	}
}

// Config converts the Record back into a config.
func (m *Record) Config() (config feeder.Config, err error) {
	fields := []struct {
		name string
		src  string
		dst  *gcode.Value
	}{
		{"advanced_angle", m.AdvancedAngle, &config.AdvancedAngle},
		{"half_advanced_angle", m.HalfAdvancedAngle, &config.HalfAdvancedAngle},
		{"retract_angle", m.RetractAngle, &config.RetractAngle},
		{"feed_length", m.FeedLength, &config.FeedLength},
		{"pwm_0", m.Pwm0, &config.Pwm0},
		{"pwm_180", m.Pwm180, &config.Pwm180},
	}
	for _, f := range fields {
		if *f.dst, err = gcode.ParseValue(f.src); err != nil {
			return config, fmt.Errorf("%w: %s: %v", ErrConfigGet, f.name, err)
		}
	}
	config.SettleTime = m.SettleTime
	config.IgnoreFeedbackPin = m.IgnoreFeedbackPin
	config.AlwaysRetract = m.AlwaysRetract
	return config, nil
}

// Image is the content of a store file.
type Image struct {
	Records []*Record `protobuf:"bytes,1,rep,name=records,proto3" json:"records,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Image) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Image) Reset() { *m = Image{} }

// String implements proto.Message.
func (m *Image) String() string { return proto.CompactTextString(m) }
