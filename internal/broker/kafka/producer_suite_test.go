package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type writerMock struct {
	mock.Mock
}

func (m *writerMock) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

type ProducerSuite struct {
	suite.Suite
	wm *writerMock
	p  *Producer
}

func (s *ProducerSuite) SetupTest() {
	s.wm = &writerMock{}
	s.p = newProducerWithWriter(s.wm)
}

func (s *ProducerSuite) TestNewProducer_NotNil() {
	p := NewProducer([]string{"localhost:0"})
	s.Require().NotNil(p)
	s.Require().NoError(p.Close())
}

func (s *ProducerSuite) TestPublish_OK() {
	s.wm.
		On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			return msgs[0].Topic == "report.generated" && string(msgs[0].Key) == "req-1" &&
				string(msgs[0].Value) == "v" && len(msgs[0].Headers) == 0
		})).
		Return(nil).
		Once()

	s.Require().NoError(s.p.Publish(context.Background(), "report.generated", []byte("req-1"), []byte("v")))
	s.wm.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestPublishJSON_Encodes() {
	s.wm.
		On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
			return len(msgs) == 1 && string(msgs[0].Key) == "req-1" && string(msgs[0].Value) == `{"carrier":"Acme"}` &&
				len(msgs[0].Headers) == 1 && string(msgs[0].Headers[0].Value) == "application/json"
		})).
		Return(nil).
		Once()

	v := struct {
		Carrier string `json:"carrier"`
	}{Carrier: "Acme"}
	s.Require().NoError(s.p.PublishJSON(context.Background(), "report.generated", "req-1", v))
	s.wm.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestPublishJSON_EncodeError() {
	err := s.p.PublishJSON(context.Background(), "t", "k", make(chan int))
	s.Require().ErrorContains(err, "encode message")
	s.wm.AssertNotCalled(s.T(), "WriteMessages", mock.Anything, mock.Anything)
}

func (s *ProducerSuite) TestPublish_ErrorWrapped() {
	want := errors.New("boom")
	s.wm.On("WriteMessages", mock.Anything, mock.Anything).Return(want).Once()

	err := s.p.Publish(context.Background(), "t", []byte("k"), []byte("v"))
	s.Require().Error(err)
	s.Require().ErrorIs(err, want)
	s.Require().Contains(err.Error(), "kafka publish to t")
	s.wm.AssertExpectations(s.T())
}

func TestProducerSuite(t *testing.T) {
	suite.Run(t, new(ProducerSuite))
}
