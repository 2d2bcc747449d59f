// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的运行指标采集，覆盖
运行、模型请求、命令执行与运行记录四个维度。

# 概述

Collector 通过 promauto.With 把指标注册到自己的 Registry，
所有指标按 namespace 隔离。一次性运行没有抓取窗口，
WriteTextfile 在结束时把指标写成 node_exporter textfile 格式。
nil Collector 的所有方法都是空操作。

# 主要能力

  - 运行指标：运行总数（按 status）、耗时、shell 调用轮数
  - 模型指标：请求总数、耗时、Token 用量，按 provider/model 分组
  - 执行指标：命令执行总数与耗时，按 backend/status 分组
  - 运行记录指标：写入条数（按 sink/kind）与失败次数
*/
package metrics
